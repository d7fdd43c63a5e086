package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/tablefn/internal/ui"
)

var (
	invokeEvent string
	invokeRaw   bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <domain>",
	Short: "Run one API Gateway event through a domain handler",
	Long: `Reads an API Gateway proxy event as JSON from --event (or stdin when
--event is "-" or omitted), runs it through the handler, and prints the
response body. The status code is printed to stderr.`,
	GroupID: "run",
	Args:    domainArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := readEvent(cmd.InOrStdin(), invokeEvent)
		if err != nil {
			return err
		}

		app, err := openApp(cmd.Context(), "tablefn-invoke")
		if err != nil {
			return err
		}
		defer app.Close()

		resp, err := app.Handler(args[0]).Handle(cmd.Context(), ev)
		if err != nil {
			return err
		}
		return printResponse(cmd.OutOrStdout(), cmd.ErrOrStderr(), resp, invokeRaw)
	},
}

func init() {
	invokeCmd.Flags().StringVar(&invokeEvent, "event", "-", "event JSON file, or - for stdin")
	invokeCmd.Flags().BoolVar(&invokeRaw, "raw", false, "print the full response object instead of the body")
}

// readEvent decodes an API Gateway proxy event from path, or from stdin when
// path is "-".
func readEvent(stdin io.Reader, path string) (events.APIGatewayProxyRequest, error) {
	var ev events.APIGatewayProxyRequest
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return ev, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return ev, fmt.Errorf("decoding event: %w", err)
	}
	if ev.HTTPMethod == "" {
		return ev, fmt.Errorf("event has no httpMethod")
	}
	return ev, nil
}

// printResponse writes the status line to errw and the body (indented when
// it is JSON) to w. With raw, the whole response object goes to w.
func printResponse(w, errw io.Writer, resp events.APIGatewayProxyResponse, raw bool) error {
	if raw {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintln(errw, ui.RenderStatus(resp.StatusCode, fmt.Sprintf("%d", resp.StatusCode)))

	var body any
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		_, err = fmt.Fprintln(w, resp.Body)
		return err
	}
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
