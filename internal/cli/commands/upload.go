package commands

import (
	"VaultSync/internal/config"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

type uploadTicket struct {
	FileURL string `json:"file_url"`
	Key     string `json:"key"`
}

// isText — файл можно хранить как текстовое содержимое источника.
func isText(data []byte) bool {
	return utf8.Valid(data) && strings.HasPrefix(http.DetectContentType(data), "text/")
}

type uploadCmd struct{}

func (uploadCmd) Name() string        { return "upload" }
func (uploadCmd) Description() string { return "Upload a file and add it as a source to the current vault" }
func (uploadCmd) Usage() string       { return "upload <path> [--no-source]" }

func (uploadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	addSource := !(len(args) > 1 && args[1] == "--no-source")
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	name := filepath.Base(args[0])
	var t uploadTicket
	if _, err := c.Upload(ctx, "/api/upload", name, data, &t); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Uploaded %s -> %s\n", name, t.FileURL)
	if !addSource {
		return nil
	}

	vaultID, _, err := vaultArg(cfg, nil)
	if err != nil {
		return err
	}
	req := map[string]string{"vault_id": vaultID, "file_url": t.FileURL, "file_key": t.Key, "title": name}
	if isText(data) {
		req["content"] = string(data)
	}
	return createSource(ctx, cfg, req)
}

func init() { RegisterCmd(uploadCmd{}) }
