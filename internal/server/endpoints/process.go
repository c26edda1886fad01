package endpoints

import (
	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/session"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// ProcessCommand runs a whole session against the server in one go:
// create, upload, transform, save, delete.
func ProcessCommand(getServerURL func() string) *cobra.Command {
	var params tools.Params
	var outDir string
	cmd := &cobra.Command{
		Use:   "process <tool> <file.pdf>...",
		Short: "Create a session, upload files, run the tool and save the result",
		Example: `  pdfomatico api process merge a.pdf b.pdf --out ./merged
  pdfomatico api process split report.pdf --ranges "1-3,4-9"
  pdfomatico api process rotate scan.pdf --angle 90`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			var st session.State
			if err := client.Post(ctx, "/api/sessions", CreateSessionRequest{Tool: args[0]}, &st); err != nil {
				return err
			}
			defer client.Delete(ctx, "/api/sessions/"+st.ID)

			base := "/api/sessions/" + st.ID
			if err := client.Upload(ctx, base+"/upload", args[1:], &st); err != nil {
				return err
			}
			f, err := client.Download(ctx, base+"/transform", params)
			if err != nil {
				return err
			}
			saved, err := api.Save(outDir, f)
			if err != nil {
				return err
			}
			return api.Output(saved)
		},
	}
	cmd.Flags().StringVar(&params.Ranges, "ranges", "", "Page ranges, e.g. \"1-3,5\" (split, extract)")
	cmd.Flags().IntVar(&params.Angle, "angle", tools.DefaultAngle, "Rotation angle: 90, 180 or 270 (rotate)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the result to")
	return cmd
}
