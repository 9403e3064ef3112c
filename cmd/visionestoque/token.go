package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/urfave/cli/v2"
)

var tokenCommand = &cli.Command{
	Name:   "token",
	Usage:  "Generate a random API token for the static bearer check",
	Action: generateToken,
}

func generateToken(cCtx *cli.Context) error {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("read random bytes: %w", err)
	}

	fmt.Fprintln(cCtx.App.Writer, base64.RawURLEncoding.EncodeToString(b))
	return nil
}
