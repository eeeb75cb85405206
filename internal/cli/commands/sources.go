package commands

import (
	"VaultSync/internal/anchor"
	"VaultSync/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type sourceView struct {
	ID      string `json:"id"`
	VaultID string `json:"vault_id"`
	URL     string `json:"url"`
	FileURL string `json:"file_url"`
	FileKey string `json:"file_key"`
	Title   string `json:"title"`
	Content string `json:"content"`

	CreatedAt time.Time `json:"created_at"`
}

type highlightsView struct {
	SourceID string           `json:"source_id"`
	Length   int              `json:"length"`
	Segments []anchor.Segment `json:"segments"`
}

func (s sourceView) location() string {
	if s.URL != "" {
		return s.URL
	}
	return s.FileKey
}

// fetchSource загружает источник вместе с текстом.
func fetchSource(ctx context.Context, cfg *config.Config, sourceID string) (*sourceView, error) {
	c, err := authedClient(cfg)
	if err != nil {
		return nil, err
	}
	var s sourceView
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/sources/"+url.PathEscape(sourceID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type sourcesCmd struct{}

func (sourcesCmd) Name() string        { return "sources" }
func (sourcesCmd) Description() string { return "List sources of the current vault" }
func (sourcesCmd) Usage() string       { return "sources [vault-id]" }

func (sourcesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	vaultID, _, err := vaultArg(cfg, args)
	if err != nil {
		return err
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var sources []sourceView
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/sources?vault_id="+url.QueryEscape(vaultID), nil, &sources); err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintln(Out, "No sources yet")
		return nil
	}
	w := table("ID", "TITLE", "LOCATION", "ADDED")
	for _, s := range sources {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Title, s.location(), s.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

type sourceAddCmd struct{}

func (sourceAddCmd) Name() string        { return "source-add" }
func (sourceAddCmd) Description() string { return "Add a web page to the current vault" }
func (sourceAddCmd) Usage() string       { return "source-add <url> [title...]" }

func (sourceAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	vaultID, _, err := vaultArg(cfg, nil)
	if err != nil {
		return err
	}
	req := map[string]string{"vault_id": vaultID, "url": args[0], "title": strings.Join(args[1:], " ")}
	return createSource(ctx, cfg, req)
}

func createSource(ctx context.Context, cfg *config.Config, req map[string]string) error {
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var s sourceView
	resp, err := c.DoJSON(ctx, http.MethodPost, "/api/sources", req, &s)
	if err != nil {
		return err
	}
	warnDegraded(resp)
	fmt.Fprintf(Out, "Source added: %s (%s)\n", s.Title, s.ID)
	return nil
}

type sourceContentCmd struct{}

func (sourceContentCmd) Name() string        { return "source-content" }
func (sourceContentCmd) Description() string { return "Replace source text with a local file" }
func (sourceContentCmd) Usage() string       { return "source-content <source-id> <file>" }

func (sourceContentCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var s sourceView
	path := "/api/sources/" + url.PathEscape(args[0]) + "/content"
	resp, err := c.DoJSON(ctx, http.MethodPut, path, map[string]string{"content": string(data)}, &s)
	if err != nil {
		return err
	}
	warnDegraded(resp)
	fmt.Fprintf(Out, "Source updated: %s (%d chars)\n", s.Title, anchor.RuneLen(s.Content))
	return nil
}

type highlightsCmd struct{}

func (highlightsCmd) Name() string        { return "highlights" }
func (highlightsCmd) Description() string { return "Print source text with annotated ranges marked" }
func (highlightsCmd) Usage() string       { return "highlights <source-id> [--json]" }

func (highlightsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var h highlightsView
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/sources/"+url.PathEscape(args[0])+"/highlights", nil, &h); err != nil {
		return err
	}
	if len(args) > 1 && args[1] == "--json" {
		enc := json.NewEncoder(Out)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}
	fmt.Fprintln(Out, markSegments(h.Segments))
	return nil
}

// markSegments выделяет подсвеченные участки скобками [[...]].
func markSegments(segments []anchor.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Highlighted() {
			b.WriteString("[[")
			b.WriteString(s.Text)
			b.WriteString("]]")
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func init() {
	RegisterCmd(sourcesCmd{})
	RegisterCmd(sourceAddCmd{})
	RegisterCmd(sourceContentCmd{})
	RegisterCmd(highlightsCmd{})
}
