// Package landing builds and renders an artisan's landing page from whatever
// is known about them: the server's answer, the contact form and the photos.
package landing

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/artisan-upload/artisan/internal/models"
)

// Placeholder content shown when neither the server nor the artisan
// supplied a value.
const (
	PlaceholderName    = "kriti Creations"
	PlaceholderTagline = "HANDMADE | ECO-FRIENDLY | HERITAGE"
	PlaceholderCTA     = "Explore art pieces"
	PlaceholderAbout   = "This is where we describe the artisan's journey, craftsmanship, and unique values. The artisan creates beautiful, handmade products that capture heritage and culture. The story behind each item is deeply rooted in tradition, making each creation unique."
	PlaceholderStory   = "In a quiet village surrounded by bamboo groves, Aarav, a skilled artisan, learned the ancient craft of bamboo weaving from his father. With each piece he creates, whether it's a basket, mat, or chair, Aarav honors the tradition passed down through generations. His woven creations are a blend of nature's beauty and human craftsmanship. Determined to preserve this art, he now teaches the younger generation, ensuring that the timeless tradition of bamboo weaving continues to thrive."
	PlaceholderContact = "Not provided"
)

var PlaceholderImages = []string{
	"https://via.placeholder.com/200",
	"https://via.placeholder.com/200",
	"https://via.placeholder.com/200",
}

// BackendResult is the display data the server derived for an artisan.
// Every field is optional.
type BackendResult struct {
	ArtisanName string   `json:"artisanName,omitempty"`
	Tagline     string   `json:"tagline,omitempty"`
	About       string   `json:"aboutTxt,omitempty"`
	Story       string   `json:"storyTxt,omitempty"`
	PhoneNum    string   `json:"phoneNum,omitempty"`
	Email       string   `json:"email,omitempty"`
	ShopAddress string   `json:"shopAddress,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// UnmarshalJSON accepts both the short (about, story) and the long
// (aboutTxt, storyTxt) field names. The long names win when both are set.
func (b *BackendResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		ArtisanName string   `json:"artisanName"`
		Tagline     string   `json:"tagline"`
		AboutTxt    string   `json:"aboutTxt"`
		About       string   `json:"about"`
		StoryTxt    string   `json:"storyTxt"`
		Story       string   `json:"story"`
		PhoneNum    string   `json:"phoneNum"`
		Email       string   `json:"email"`
		ShopAddress string   `json:"shopAddress"`
		Images      []string `json:"images"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BackendResult{
		ArtisanName: raw.ArtisanName,
		Tagline:     raw.Tagline,
		About:       firstNonEmpty(raw.AboutTxt, raw.About),
		Story:       firstNonEmpty(raw.StoryTxt, raw.Story),
		PhoneNum:    raw.PhoneNum,
		Email:       raw.Email,
		ShopAddress: raw.ShopAddress,
		Images:      raw.Images,
	}
	return nil
}

// FromSaveResponse turns saved image filenames into references under
// mediaBase, e.g. "http://localhost:5000/uploads/".
func FromSaveResponse(resp *models.SaveResponse, mediaBase string) *BackendResult {
	if resp == nil {
		return nil
	}
	return &BackendResult{Images: MediaRefs(mediaBase, resp.Images)}
}

// FromStory maps the audio processing result.
func FromStory(res *models.StoryResult) *BackendResult {
	if res == nil {
		return nil
	}
	return &BackendResult{
		ArtisanName: res.ArtisanName,
		Tagline:     res.Tagline,
		About:       res.AboutTxt,
		Story:       res.StoryTxt,
	}
}

// MediaRefs joins stored filenames onto base.
func MediaRefs(base string, names []string) []string {
	refs := make([]string, 0, len(names))
	for _, name := range names {
		refs = append(refs, strings.TrimSuffix(base, "/")+"/"+url.PathEscape(name))
	}
	return refs
}

// Input is everything the renderer may draw from, highest precedence first.
type Input struct {
	Backend *BackendResult
	Contact *models.Contact
	// Images are local references, such as preview files, used when the
	// backend returned none.
	Images []string
}

type ContactSection struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// Page is the fully resolved content of a landing page.
type Page struct {
	ArtisanName string
	Tagline     string
	CTA         string
	About       string
	Story       string
	Gallery     []string
	Contact     ContactSection
}

// Build resolves every field with the precedence backend, then contact,
// then placeholder. It never modifies in.
func Build(in Input) Page {
	var b BackendResult
	if in.Backend != nil {
		b = *in.Backend
	}
	var c models.Contact
	if in.Contact != nil {
		c = *in.Contact
	}

	page := Page{
		ArtisanName: firstNonEmpty(b.ArtisanName, c.ArtisanName, PlaceholderName),
		Tagline:     firstNonEmpty(b.Tagline, PlaceholderTagline),
		CTA:         PlaceholderCTA,
		About:       firstNonEmpty(b.About, PlaceholderAbout),
		Story:       firstNonEmpty(b.Story, PlaceholderStory),
		Contact: ContactSection{
			Name:    firstNonEmpty(b.ArtisanName, c.ArtisanName, PlaceholderContact),
			Phone:   firstNonEmpty(b.PhoneNum, c.PhoneNum, PlaceholderContact),
			Email:   firstNonEmpty(b.Email, c.Email, PlaceholderContact),
			Address: firstNonEmpty(b.ShopAddress, c.ShopAddress, PlaceholderContact),
		},
	}

	switch {
	case len(b.Images) > 0:
		page.Gallery = append([]string(nil), b.Images...)
	case len(in.Images) > 0:
		page.Gallery = append([]string(nil), in.Images...)
	default:
		page.Gallery = append([]string(nil), PlaceholderImages...)
	}

	return page
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
