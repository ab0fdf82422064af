/**
 * @description
 * This package provides a small SMTP client for operator alerts. The sync
 * jobs use it to flag linkages that failed reconciliation for a reason an
 * operator can act on.
 *
 * Key features:
 * - Plain-auth SMTP submission.
 * - One message shape: a sync failure alert for a (tenant, item) pair.
 *
 * @dependencies
 * - net/smtp: Standard Go library.
 */
package emailclient

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// Client sends operator alert emails over SMTP.
type Client struct {
	addr string
	auth smtp.Auth
	from string
	to   string

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewClient creates an alert sender. host and port identify the SMTP
// submission endpoint; from and to are the alert addresses.
func NewClient(host string, port int, username, password, from, to string) *Client {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &Client{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
		to:   to,
		send: smtp.SendMail,
	}
}

// NotifySyncFailure emails the operator about one linkage's sync failure.
func (c *Client) NotifySyncFailure(ctx context.Context, tenantID uuid.UUID, itemID string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.from == "" || c.to == "" {
		return fmt.Errorf("alert addresses not configured")
	}

	subject := fmt.Sprintf("Transaction sync failed for item %s", itemID)
	body := fmt.Sprintf("Tenant: %s\r\nItem: %s\r\nError: %v\r\n", tenantID, itemID, cause)

	var msg strings.Builder
	msg.WriteString("From: " + c.from + "\r\n")
	msg.WriteString("To: " + c.to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := c.send(c.addr, c.auth, c.from, []string{c.to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}
