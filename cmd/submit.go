package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/artisan-upload/artisan/internal/capture"
	"github.com/artisan-upload/artisan/internal/client"
	"github.com/artisan-upload/artisan/internal/collect"
	"github.com/artisan-upload/artisan/internal/landing"
	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
	"github.com/artisan-upload/artisan/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var server, landingPath, audioPath string
	var imagePaths []string
	var contact models.Contact

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit photos, audio and contact details without prompts",
		Long: `Sends one bulk submission to the artisan server, the same way the
interactive upload flow does, and prints the server's response.

Files that are not images are skipped with a warning. Name, phone and shop
address are required.`,
		Example: `  artisan submit --image vase.jpg --image bowl.png --audio story.webm \
    --name "Meera" --phone 98765 --address "Lane 4, Jaipur"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := clientConfig(cmd, server)
			if err != nil {
				return err
			}

			api := client.New(cfg.Client.ServerURL, cfg.Client.Timeout)
			session := orchestrator.New(api)

			images := collect.NewImageCollector("")
			images.OnAccept = session.SetImages
			defer images.Release()

			var blobs []media.Blob
			for _, p := range imagePaths {
				b, err := media.LoadFile(p)
				if err != nil {
					return err
				}
				blobs = append(blobs, b)
			}
			for _, v := range images.AcceptFiles(blobs) {
				if !v.Accepted {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: %s\n", v.Name, v.Reason)
				}
			}

			if audioPath != "" {
				recorder := capture.NewRecorder(nil, nil)
				recorder.OnAudio = session.SetAudio
				b, err := media.LoadFile(audioPath)
				if err != nil {
					return err
				}
				if err := recorder.AttachFile(b); err != nil {
					return err
				}
			}

			form := collect.NewContactForm()
			form.OnSubmit = session.SetContact
			if err := form.Submit(contact); err != nil {
				return err
			}

			handoff, err := session.Submit(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(handoff.Result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if landingPath != "" {
				page := landing.Build(landing.Input{
					Backend: landing.FromSaveResponse(&handoff.Result, api.MediaBase()),
					Contact: &handoff.Contact,
				})
				if err := landing.WriteFile(cmd.Context(), landingPath, page); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Landing page written to %s\n", landingPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:5000", "Artisan server URL (overrides ARTISAN_SERVER_URL)")
	cmd.Flags().StringArrayVarP(&imagePaths, "image", "i", nil, "Product photo (repeatable)")
	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Voice story recording")
	cmd.Flags().StringVar(&contact.ArtisanName, "name", "", "Artisan name")
	cmd.Flags().StringVar(&contact.PhoneNum, "phone", "", "Phone number")
	cmd.Flags().StringVar(&contact.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&contact.ShopAddress, "address", "", "Shop address")
	cmd.Flags().StringVar(&landingPath, "landing", "", "Also write the landing page to this path")

	return cmd
}
