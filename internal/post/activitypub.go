package post

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/gob"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"git.sr.ht/~mariusor/lw"
	"github.com/McKael/madon"
	vocab "github.com/go-ap/activitypub"
	"github.com/go-ap/client"
	"github.com/go-ap/errors"
	"gitlab.com/golang-commonmark/markdown"
	"golang.org/x/oauth2"
)

var infFn client.LogFn = func(s string, i ...interface{}) {}
var errFn client.LogFn = func(s string, i ...interface{}) {}

var nl = vocab.DefaultNaturalLanguageValue

// APClient holds the OAuth2 credentials of an ActivityPub actor that
// alerts are published as.
type APClient struct {
	ID   vocab.IRI
	Type string
	Conf oauth2.Config
	Tok  *oauth2.Token
}

func GetHTTPClient() *http.Client {
	cl := http.DefaultClient

	if cl.Transport == nil {
		cl.Transport = &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 20,
			DialContext: (&net.Dialer{
				Timeout: 2500 * time.Millisecond,
			}).DialContext,
			TLSHandshakeTimeout: 2500 * time.Millisecond,
		}
	}
	if tr, ok := cl.Transport.(*http.Transport); ok {
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = new(tls.Config)
		}
		tr.TLSClientConfig.InsecureSkipVerify = true
	}
	return cl
}

func renderMarkdown(data string) string {
	md := markdown.New(
		markdown.HTML(true),
		markdown.Tables(false),
		markdown.Linkify(true),
		markdown.Typographer(true),
		markdown.Breaks(true),
	)
	return md.RenderToString([]byte(data))
}

func wrapObjectInCreate(actor vocab.Actor, p vocab.Item) vocab.Activity {
	now := time.Now().UTC()
	return vocab.Activity{
		Type:         vocab.CreateType,
		Published:    now,
		Updated:      now,
		AttributedTo: actor.GetLink(),
		Actor:        actor.GetLink(),
		Object:       p,
	}
}

// ToActivityPub publishes the alert as a Note to the actor's outbox.
// The markdown source rides along for clients that prefer it.
func ToActivityPub(cl *APClient) SinkFn {
	logger := lw.Dev()

	tok := cl.Tok.AccessToken
	oauth := cl.Conf.Client(context.Background(), cl.Tok)
	ap := client.New(
		client.WithHTTPClient(oauth),
		client.WithLogger(logger),
	)

	errFn = logger.Errorf
	infFn = logger.Infof

	c, cancelFn := context.WithTimeout(context.Background(), time.Second)
	defer cancelFn()

	actor, err := ap.Actor(c, cl.ID)
	if err != nil {
		errFn("%s, falling back to just printing", err)
		return ToStdout
	}

	return func(ctx context.Context, _, message string) error {
		ob := new(vocab.Object)
		ob.Type = vocab.NoteType
		ob.Content = nl(renderMarkdown(message))
		ob.Source = vocab.Source{
			MediaType: "text/markdown",
			Content:   nl(message),
		}
		ob.To = vocab.ItemCollection{vocab.PublicNS}
		ob.CC = vocab.ItemCollection{vocab.Followers.Of(actor)}

		_, created, err := ap.ToOutbox(ctx, wrapObjectInCreate(*actor, ob))
		if err != nil {
			return errors.Annotatef(err, "unable to publish alert for %s", cl.ID)
		}
		infFn("Created object: %s", created.GetLink())

		if tr, ok := oauth.Transport.(*oauth2.Transport); ok {
			cl.Tok, err = tr.Source.Token()
			if err != nil {
				errFn("Unable to refresh OAuth2 token: %s", err)
			} else if cl.Tok.AccessToken != tok {
				if err := SaveCredentials(cl, filepath.Join(cl.Type, InstanceName(cl.ID.String()))); err != nil {
					errFn("Unable to save new credentials for %s: %s", cl.ID, err)
				} else {
					infFn("Refreshed OAuth2 credentials %s", cl.ID)
				}
			}
		}
		return nil
	}
}

func InstanceName(inst string) string {
	if u, err := url.ParseRequestURI(inst); err == nil {
		inst = u.Host
	}
	return url.PathEscape(filepath.Clean(filepath.Base(inst)))
}

func SaveCredentials(cl any, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to open file %w", err)
	}
	defer f.Close()

	d := gob.NewEncoder(f)
	return d.Encode(cl)
}

// LoadCredentials walks the credentials directory and decodes every
// client it recognizes, keyed by instance file name.
func LoadCredentials(path string) (map[string]any, error) {
	creds := make(map[string]any)

	err := filepath.WalkDir(path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, cl := range []any{new(APClient), new(madon.Client)} {
			if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(cl); err != nil {
				continue
			}
			creds[filepath.Base(path)] = cl
		}
		return nil
	})

	return creds, err
}
