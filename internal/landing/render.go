package landing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a-h/templ"
)

// Render writes the landing page as a complete HTML document.
func Render(ctx context.Context, w io.Writer, page Page) error {
	return Document(page).Render(ctx, w)
}

// WriteFile renders the page to path, creating parent directories.
func WriteFile(ctx context.Context, path string, page Page) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create landing directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create landing page: %w", err)
	}
	if err := Render(ctx, f, page); err != nil {
		f.Close()
		return fmt.Errorf("failed to render landing page: %w", err)
	}
	return f.Close()
}

// Document wraps the page sections in an HTML shell.
func Document(page Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title></head><body><div class="main">`,
			templ.EscapeString(page.ArtisanName)); err != nil {
			return err
		}
		for _, section := range Sections(page) {
			if err := section.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div></body></html>`)
		return err
	})
}

// Sections returns the page sections in display order.
func Sections(page Page) []templ.Component {
	return []templ.Component{
		Hero(page),
		About(page.About),
		Story(page.Story),
		Gallery(page.Gallery),
		Contact(page.Contact),
	}
}

func Hero(page Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="hero"><h1 class="cta-text">%s</h1><h2>%s</h2><p>%s</p></section>`,
			templ.EscapeString(page.CTA),
			templ.EscapeString(page.ArtisanName),
			templ.EscapeString(page.Tagline))
		return err
	})
}

func About(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="about-section"><h2>ABOUT</h2><p>%s</p></section>`, templ.EscapeString(text))
		return err
	})
}

func Story(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="story-section"><h1>STORY</h1><p>%s</p></section>`, templ.EscapeString(text))
		return err
	})
}

func Gallery(images []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="photo-section"><h1 class="gallery-title">Product Gallery</h1><div class="gallery-container">`); err != nil {
			return err
		}
		for i, src := range images {
			if _, err := fmt.Fprintf(w, `<div class="art-item"><img src="%s" alt="art piece %d" class="art-image"></div>`,
				templ.EscapeString(string(templ.URL(src))), i+1); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div></section>`)
		return err
	})
}

func Contact(c ContactSection) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="contact-section"><h2 class="contact-title">Meet the Artisan</h2>`+
			`<div class="contact-item"><h2>Name:</h2><span class="contact-info">%s</span></div>`+
			`<div class="contact-item"><h2>Phone:</h2><span class="contact-info">%s</span></div>`+
			`<div class="contact-item"><h2>Email:</h2><span class="contact-info">%s</span></div>`+
			`<div class="address-wrapper"><h2>Shop Address:</h2><p class="address-info">%s</p></div></section>`,
			templ.EscapeString(c.Name),
			templ.EscapeString(c.Phone),
			templ.EscapeString(c.Email),
			templ.EscapeString(c.Address))
		return err
	})
}
