package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// ProgressCallback reports download progress
type ProgressCallback func(current, total int, message string)

// GmailHandler downloads resume attachments from a Gmail inbox
type GmailHandler struct {
	service    *gmail.Service
	uploadsDir string
	progressCb ProgressCallback
}

// NewGmailHandler authorizes against Gmail with OAuth client credentials. The
// token is cached at tokenPath; on first use the user is prompted on stdin.
func NewGmailHandler(ctx context.Context, credentialsPath, tokenPath, uploadsDir string) (*GmailHandler, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client, err := getClient(ctx, config, tokenPath, os.Stdin)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailHandler{
		service:    srv,
		uploadsDir: uploadsDir,
	}, nil
}

// SetProgressCallback sets the progress callback function
func (gh *GmailHandler) SetProgressCallback(cb ProgressCallback) {
	gh.progressCb = cb
}

func (gh *GmailHandler) reportProgress(current, total int, message string) {
	if gh.progressCb != nil {
		gh.progressCb(current, total, message)
	}
}

// getClient loads the cached token or runs the interactive consent flow
func getClient(ctx context.Context, config *oauth2.Config, tokFile string, in io.Reader) (*http.Client, error) {
	tok, err := tokenFromFile(tokFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, config, in)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokFile, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

// getTokenFromWeb requests a token from the web
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, in io.Reader) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	log.Info().Str("path", path).Msg("Saving OAuth token")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode oauth token: %w", err)
	}
	return nil
}

// FetchResumes downloads the PDF and DOCX attachments of messages matching
// subject into the uploads directory and returns how many were saved
func (gh *GmailHandler) FetchResumes(ctx context.Context, subject string) (int, error) {
	if err := os.MkdirAll(gh.uploadsDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	query := fmt.Sprintf("subject:%q has:attachment", subject)
	r, err := gh.service.Users.Messages.List(gmailUser).Q(query).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return 0, fmt.Errorf("no messages found with subject: %s", subject)
	}

	saved := 0
	for i, msg := range r.Messages {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		gh.reportProgress(i, len(r.Messages), fmt.Sprintf("Fetching message %d/%d", i+1, len(r.Messages)))

		message, err := gh.service.Users.Messages.Get(gmailUser, msg.Id).Context(ctx).Do()
		if err != nil {
			log.Warn().Err(err).Str("message_id", msg.Id).Msg("Unable to retrieve message")
			continue
		}

		sender := extractSenderName(message)
		for _, part := range resumeAttachments(message.Payload) {
			if err := gh.saveAttachment(ctx, msg.Id, sender, part); err != nil {
				log.Warn().Err(err).Str("message_id", msg.Id).Str("filename", part.Filename).Msg("Unable to save attachment")
				continue
			}
			saved++
		}
	}

	gh.reportProgress(len(r.Messages), len(r.Messages), fmt.Sprintf("Downloaded %d resumes", saved))
	return saved, nil
}

func (gh *GmailHandler) saveAttachment(ctx context.Context, messageID, sender string, part *gmail.MessagePart) error {
	attachment, err := gh.service.Users.Messages.Attachments.Get(gmailUser, messageID, part.Body.AttachmentId).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve attachment: %w", err)
	}

	data, err := decodeAttachment(attachment.Data)
	if err != nil {
		return fmt.Errorf("unable to decode attachment: %w", err)
	}

	filename := attachmentFilename(sender, part.Filename)
	filePath := filepath.Join(gh.uploadsDir, filename)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("unable to write file %s: %w", filePath, err)
	}

	log.Info().Str("filename", filename).Int("bytes", len(data)).Msg("Downloaded resume")
	return nil
}

// decodeAttachment accepts padded and unpadded URL-safe base64
func decodeAttachment(data string) ([]byte, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}
	decoded, rawErr := base64.RawURLEncoding.DecodeString(data)
	if rawErr != nil {
		return nil, errors.Join(err, rawErr)
	}
	return decoded, nil
}

// resumeAttachments walks a message's MIME tree for PDF and DOCX attachments
func resumeAttachments(part *gmail.MessagePart) []*gmail.MessagePart {
	if part == nil {
		return nil
	}

	var found []*gmail.MessagePart
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" && IsSupported(part.Filename) {
		found = append(found, part)
	}
	for _, child := range part.Parts {
		found = append(found, resumeAttachments(child)...)
	}
	return found
}

// attachmentFilename names a download "<Sender>_<original name>" so that
// CandidateName recovers the sender when the attachment is just "CV.pdf"
func attachmentFilename(sender, original string) string {
	base := filepath.Base(original)
	if strings.Contains(strings.ToLower(base), strings.ToLower(sender)) {
		return base
	}
	return fmt.Sprintf("%s_%s", sender, base)
}

// extractSenderName extracts the sender's name from email headers
func extractSenderName(message *gmail.Message) string {
	if message == nil || message.Payload == nil {
		return "Unknown"
	}
	for _, header := range message.Payload.Headers {
		if header.Name != "From" {
			continue
		}
		// Parse "Name <email@example.com>" format
		from := header.Value
		if idx := strings.Index(from, "<"); idx > 0 {
			name := strings.Trim(strings.TrimSpace(from[:idx]), `"`)
			return strings.Join(strings.Fields(name), "_")
		}
		// If no name, use email prefix
		if idx := strings.Index(from, "@"); idx > 0 {
			return strings.TrimPrefix(from[:idx], "<")
		}
		return "Unknown"
	}
	return "Unknown"
}
