package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nametags/journal"
	"nametags/label"
)

// remoteWindow is how far a remote command's timestamp may drift from the
// station clock.
const remoteWindow = 5 * time.Minute

// PrintRequest represents a remote print command.
type PrintRequest struct {
	Name       string `json:"name"`
	SecondLine string `json:"second_line"`
	Timestamp  uint64 `json:"timestamp"`
	Signature  string `json:"signature"`
}

var errBadSignature = errors.New("signature verification failed")

func (app *App) handlePrintRequest(payload []byte) {
	if app.cfg.PrintSecret == "" {
		app.log.Info("Remote print disabled (no print_secret configured)")
		return
	}

	req, err := decodePrintRequest(app.cfg.PrintSecret, payload, app.now())
	if err != nil {
		app.log.Warnf("Reject remote print: %v", err)
		return
	}

	app.log.Infof("Remote print request for %q", req.Name)
	app.printJob(app.ctx, job{
		source: journal.SourceMQTT,
		req:    label.Request{Primary: req.Name, Secondary: req.SecondLine},
	})
}

// decodePrintRequest parses and authenticates a remote print command.
func decodePrintRequest(base64Secret string, payload []byte, now time.Time) (PrintRequest, error) {
	var req PrintRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return PrintRequest{}, fmt.Errorf("decode print request: %w", err)
	}
	if err := verifySignature(base64Secret, req.Name, req.SecondLine, req.Timestamp, req.Signature); err != nil {
		return PrintRequest{}, err
	}
	if err := (label.Request{Primary: req.Name, Secondary: req.SecondLine}).Validate(); err != nil {
		return PrintRequest{}, fmt.Errorf("print request: %w", err)
	}

	ts := time.Unix(int64(req.Timestamp), 0)
	if now.Before(ts.Add(-remoteWindow)) || now.After(ts.Add(remoteWindow)) {
		return PrintRequest{}, fmt.Errorf("print request timestamp %s out of range", ts.UTC().Format(time.RFC3339))
	}
	return req, nil
}

// signPrintRequest returns the HMAC-SHA256 of name, a NUL separator, the
// second line and the big-endian timestamp, in hex and base64.
func signPrintRequest(base64Secret, name, secondLine string, ts uint64) (string, string, error) {
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return "", "", fmt.Errorf("invalid base64 secret: %w", err)
	}
	if len(secret) == 0 {
		return "", "", fmt.Errorf("secret cannot be empty")
	}

	msg := make([]byte, 0, len(name)+1+len(secondLine)+8)
	msg = append(msg, name...)
	msg = append(msg, 0)
	msg = append(msg, secondLine...)
	msg = binary.BigEndian.AppendUint64(msg, ts)

	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	sum := mac.Sum(nil)

	return hex.EncodeToString(sum), base64.StdEncoding.EncodeToString(sum), nil
}

func verifySignature(base64Secret, name, secondLine string, ts uint64, providedSig string) error {
	sigHex, _, err := signPrintRequest(base64Secret, name, secondLine, ts)
	if err != nil {
		return err
	}
	expected, _ := hex.DecodeString(sigHex)

	if decoded, err := hex.DecodeString(providedSig); err == nil {
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return nil
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(providedSig); err == nil {
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return nil
		}
	}
	return errBadSignature
}
