package post

import (
	"context"
	"fmt"
	"strings"

	"github.com/McKael/madon"
)

const unlisted = "unlisted"

var badStrings = []string{"â€‹"}

func removeStrings(s string, replace ...string) string {
	for _, r := range replace {
		s = strings.ReplaceAll(s, r, "")
	}
	return s
}

// ToMastodon posts the alert as an unlisted status. The channel
// identity is ignored: the destination is fixed by the authorized
// client's instance.
func ToMastodon(client *madon.Client) SinkFn {
	if client == nil {
		return ToStdout
	}
	return func(_ context.Context, _, message string) error {
		message = removeStrings(message, badStrings...)
		s, err := client.PostStatus(message, 0, nil, false, "", unlisted)
		if err != nil {
			return fmt.Errorf("%s: %w", client.InstanceURL, err)
		}
		infFn("Post at: %s", s.URI)
		return nil
	}
}
