package cli

import (
	"context"
	"os"
	"strconv"

	"github.com/ohare93/delegate/internal/directory"
	"github.com/ohare93/delegate/internal/domain"
)

// resolveUser accepts a numeric id or a login
func resolveUser(ctx context.Context, dir *directory.Directory, ref string) (*domain.User, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return dir.FindByID(ctx, id)
	}
	return dir.FindByLogin(ctx, ref)
}

func parseID(ref, what string) (int64, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(what, "invalid %s: %q", what, ref)
	}
	return id, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
