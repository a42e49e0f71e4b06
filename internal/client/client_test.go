package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
)

func TestSaveArtisanData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/save_artisan_data" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Invalid multipart body: %v", err)
		}
		var contact models.Contact
		if err := json.Unmarshal([]byte(r.FormValue("artisanData")), &contact); err != nil {
			t.Fatalf("Invalid artisanData: %v", err)
		}
		if contact.ArtisanName != "Meera" {
			t.Errorf("Expected Meera, got %s", contact.ArtisanName)
		}
		images := r.MultipartForm.File["images"]
		if len(images) != 2 || images[0].Filename != "a.jpg" || images[0].Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("Unexpected images %v", images)
		}
		audio := r.MultipartForm.File["audioFile"]
		if len(audio) != 1 {
			t.Fatalf("Expected one audio file, got %d", len(audio))
		}
		f, _ := audio[0].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "wav" {
			t.Errorf("Unexpected audio payload %q", data)
		}
		w.Write([]byte(`{"message":"Data saved successfully","filename":"artisan_data_1.json","audioFile":"1_a.wav","images":["1_a.jpg","1_b.jpg"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	resp, err := c.SaveArtisanData(context.Background(), Submission{
		Contact: models.Contact{ArtisanName: "Meera", PhoneNum: "1", ShopAddress: "X"},
		Images: []media.Blob{
			{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("a")},
			{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("b")},
		},
		Audio: &media.Blob{Name: "a.wav", ContentType: "audio/wav", Data: []byte("wav")},
	})
	if err != nil {
		t.Fatalf("SaveArtisanData failed: %v", err)
	}
	if resp.Filename != "artisan_data_1.json" || len(resp.Images) != 2 {
		t.Errorf("Unexpected response %+v", resp)
	}
	if c.MediaBase() != srv.URL+"/uploads/" {
		t.Errorf("Unexpected media base %s", c.MediaBase())
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"rejected with message", http.StatusBadRequest, `{"message":"No artisan data provided"}`, func(t *testing.T, err error) {
			var rej *RejectedError
			if !errors.As(err, &rej) || rej.Message != "No artisan data provided" {
				t.Errorf("Expected RejectedError with server message, got %v", err)
			}
		}},
		{"rejected with error key", http.StatusBadRequest, `{"error":"Missing audio file","success":false}`, func(t *testing.T, err error) {
			var rej *RejectedError
			if !errors.As(err, &rej) || rej.Message != "Missing audio file" {
				t.Errorf("Expected error key message, got %v", err)
			}
		}},
		{"rejected plain text", http.StatusRequestEntityTooLarge, "too big", func(t *testing.T, err error) {
			var rej *RejectedError
			if !errors.As(err, &rej) || rej.Message != "too big" || rej.StatusCode != 413 {
				t.Errorf("Expected plain text message, got %v", err)
			}
		}},
		{"server fault", http.StatusInternalServerError, `{"message":"Internal server error"}`, func(t *testing.T, err error) {
			var se *ServerError
			if !errors.As(err, &se) || se.StatusCode != 500 {
				t.Errorf("Expected ServerError, got %v", err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).SaveArtisanData(context.Background(), Submission{})
			tt.check(t, err)
		})
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).ProcessAudio(context.Background(), media.Blob{Name: "a.wav", Data: []byte("x")})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", err)
	}
}

func TestTimeoutWhileReadingBody(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Data sa`))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, 100*time.Millisecond).SaveArtisanData(context.Background(), Submission{
		Contact: models.Contact{ArtisanName: "Meera"},
	})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable for a stalled body, got %v", err)
	}
}

func TestProcessAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			t.Fatalf("Missing audio_file: %v", err)
		}
		defer file.Close()
		if header.Filename != "story.wav" {
			t.Errorf("Unexpected filename %s", header.Filename)
		}
		w.Write([]byte(`{"success":true,"artisanName":"Meera","tagline":"HANDMADE"}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, time.Second).ProcessAudio(context.Background(), media.Blob{Name: "story.wav", ContentType: "audio/wav", Data: []byte("RIFF")})
	if err != nil {
		t.Fatalf("ProcessAudio failed: %v", err)
	}
	if !res.Success || res.ArtisanName != "Meera" {
		t.Errorf("Unexpected result %+v", res)
	}
}
