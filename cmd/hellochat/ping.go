package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) get(path string) (int, []byte, error) {
	resp, err := c.HTTP.Get(strings.TrimRight(c.BaseURL, "/") + path)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(w io.Writer, status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Fprintln(w, string(p))
			return
		}
	}
	fmt.Fprintf(w, "status=%d %s\n", status, strings.TrimSpace(string(body)))
}

func newPingCmd() *cobra.Command {
	cl := &client{HTTP: &http.Client{Timeout: 10 * time.Second}}

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Consulta /readyz de un server (chat o notify)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.get("/readyz")
			if err != nil {
				return err
			}
			cl.print(cmd.OutOrStdout(), status, body)
			if status/100 != 2 {
				return fmt.Errorf("ping falló: status=%d", status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cl.BaseURL, "url", envOr("HELLOCHAT_URL", "http://localhost:8080"), "URL base del server (env HELLOCHAT_URL)")
	cmd.Flags().StringVar(&cl.OutFormat, "out", "text", "Formato de salida: json|text")
	return cmd
}
