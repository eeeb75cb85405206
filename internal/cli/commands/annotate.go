package commands

import (
	"VaultSync/internal/anchor"
	"VaultSync/internal/config"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type annotationView struct {
	ID        string          `json:"id"`
	SourceID  string          `json:"source_id"`
	Content   string          `json:"content"`
	Position  anchor.Position `json:"position"`
	CreatedAt time.Time       `json:"created_at"`
	User      *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// parsePoint разбирает "строка:столбец" (с единицы) в точку над строками текста.
func parsePoint(s string) (anchor.Point, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return anchor.Point{}, fmt.Errorf("bad point %q: want line:col", s)
	}
	l, err := strconv.Atoi(line)
	if err != nil || l < 1 {
		return anchor.Point{}, fmt.Errorf("bad line in %q", s)
	}
	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return anchor.Point{}, fmt.Errorf("bad column in %q", s)
	}
	return anchor.Point{Node: l - 1, Offset: c - 1}, nil
}

// selectPosition захватывает выделение from..to над текстом источника.
// Пустое выделение даёт аннотацию без привязки.
func selectPosition(content, from, to string) (anchor.Position, error) {
	a, err := parsePoint(from)
	if err != nil {
		return anchor.Position{}, err
	}
	f, err := parsePoint(to)
	if err != nil {
		return anchor.Position{}, err
	}
	pos, ok, err := anchor.IndexOf(anchor.Lines(content)).Capture(content, a, f)
	if err != nil {
		return anchor.Position{}, err
	}
	if !ok {
		return anchor.Unanchored(), nil
	}
	return pos, nil
}

type annotateCmd struct{}

func (annotateCmd) Name() string        { return "annotate" }
func (annotateCmd) Description() string { return "Annotate a source, optionally anchored to a text range" }
func (annotateCmd) Usage() string {
	return "annotate [--from line:col --to line:col] <source-id> <note...>"
}

func (annotateCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	from := fs.String("from", "", "selection start, line:col")
	to := fs.String("to", "", "selection end, line:col")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) < 2 || (*from == "") != (*to == "") {
		return ErrUsage
	}
	sourceID, note := rest[0], strings.Join(rest[1:], " ")

	pos := anchor.Unanchored()
	if *from != "" {
		src, err := fetchSource(ctx, cfg, sourceID)
		if err != nil {
			return err
		}
		if src.Content == "" {
			return errors.New("source has no text content to select from")
		}
		if pos, err = selectPosition(src.Content, *from, *to); err != nil {
			return err
		}
	}

	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	req := map[string]any{"source_id": sourceID, "content": note, "position": pos}
	var a annotationView
	resp, err := c.DoJSON(ctx, http.MethodPost, "/api/annotations", req, &a)
	if err != nil {
		return err
	}
	warnDegraded(resp)
	if a.Position.Anchored() {
		fmt.Fprintf(Out, "Annotation %s on %s: %q\n", a.ID, a.Position, a.Position.SelectedText())
		return nil
	}
	fmt.Fprintf(Out, "Annotation %s (unanchored)\n", a.ID)
	return nil
}

type annotationsCmd struct{}

func (annotationsCmd) Name() string        { return "annotations" }
func (annotationsCmd) Description() string { return "List annotations of a source" }
func (annotationsCmd) Usage() string       { return "annotations <source-id>" }

func (annotationsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var list []annotationView
	if _, err := c.DoJSON(ctx, http.MethodGet, "/api/annotations?source_id="+url.QueryEscape(args[0]), nil, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No annotations yet")
		return nil
	}
	w := table("AUTHOR", "RANGE", "TEXT", "NOTE")
	for _, a := range list {
		author := ""
		if a.User != nil {
			author = a.User.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%q\t%s\n", author, a.Position, a.Position.SelectedText(), a.Content)
	}
	return w.Flush()
}

func init() {
	RegisterCmd(annotateCmd{})
	RegisterCmd(annotationsCmd{})
}
