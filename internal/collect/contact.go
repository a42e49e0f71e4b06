package collect

import (
	"strings"
	"sync"

	"github.com/artisan-upload/artisan/internal/models"
)

// MissingFieldsError names the required contact fields left empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "required fields missing: " + strings.Join(e.Fields, ", ")
}

// ContactForm collects the artisan's contact details. Name, phone and
// address are required; email is optional. Values are kept after submit so
// the artisan can edit and submit again.
type ContactForm struct {
	OnSubmit func(models.Contact)

	mu     sync.Mutex
	values models.Contact
}

func NewContactForm() *ContactForm {
	return &ContactForm{}
}

// Submit stores fields and emits a snapshot when every required field is
// filled in.
func (f *ContactForm) Submit(fields models.Contact) error {
	f.mu.Lock()
	f.values = fields
	onSubmit := f.OnSubmit
	f.mu.Unlock()

	if missing := MissingFields(fields); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	if onSubmit != nil {
		onSubmit(fields)
	}
	return nil
}

// Values returns what was last entered, submitted or not.
func (f *ContactForm) Values() models.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// MissingFields lists the required fields that are blank.
func MissingFields(c models.Contact) []string {
	var missing []string
	if strings.TrimSpace(c.ArtisanName) == "" {
		missing = append(missing, "artisanName")
	}
	if strings.TrimSpace(c.PhoneNum) == "" {
		missing = append(missing, "phoneNum")
	}
	if strings.TrimSpace(c.ShopAddress) == "" {
		missing = append(missing, "shopAddress")
	}
	return missing
}
