// Package imap reads mail over IMAP for accounts without Gmail API access.
package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	emaildomain "mail-assistant/internal/email/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

const DefaultDialTimeout = 30 * time.Second

type Config struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	// DialTimeout bounds the TCP dial, the TLS handshake and every command.
	DialTimeout time.Duration
}

// Connector logs in to one configured IMAP account. It serves a single
// mailbox: the user id only tags log lines and every user reads the same
// account. Use the Gmail connector for per-user mail.
type Connector struct {
	cfg Config
	log *zap.Logger
}

var _ emaildomain.MailConnector = (*Connector)(nil)

func NewConnector(cfg Config, log *zap.Logger) *Connector {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{cfg: cfg, log: log}
}

func (c *Connector) Connect(ctx context.Context, userID string) (emaildomain.MailProvider, error) {
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return nil, &emaildomain.CredentialError{UserID: userID, Resource: "imap login"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cl, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	if _, err := cl.Select(c.cfg.Mailbox, true); err != nil {
		_ = cl.Logout()
		return nil, fmt.Errorf("failed to select mailbox %s: %w", c.cfg.Mailbox, err)
	}
	c.log.Info("imap session opened", zap.String("user_id", userID), zap.String("mailbox", c.cfg.Mailbox))
	return &Session{client: cl}, nil
}

// dial connects over TLS. The greeting and login run under a deadline on the
// raw connection, which is lifted once the session is usable; later commands
// use the client timeout. A context deadline shortens both.
func (c *Connector) dial(ctx context.Context) (*client.Client, error) {
	timeout := c.cfg.DialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	host, _, err := net.SplitHostPort(c.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid IMAP address %q: %w", c.cfg.Addr, err)
	}
	dialer := &deadlineDialer{timeout: timeout}
	cl, err := client.DialWithDialerTLS(dialer, c.cfg.Addr, &tls.Config{ServerName: host})
	if err != nil {
		return nil, err
	}
	cl.Timeout = timeout
	if err := cl.Login(c.cfg.Username, c.cfg.Password); err != nil {
		_ = cl.Logout()
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}
	_ = dialer.conn.SetDeadline(time.Time{})
	return cl, nil
}

type deadlineDialer struct {
	timeout time.Duration
	conn    net.Conn
}

func (d *deadlineDialer) Dial(network, addr string) (net.Conn, error) {
	conn, err := (&net.Dialer{Timeout: d.timeout}).Dial(network, addr)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(time.Now().Add(d.timeout)); err != nil {
		conn.Close()
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

// Session implements domain.MailProvider. Message ids are UIDs.
type Session struct {
	client *client.Client
}

func (s *Session) ListMessageIDs(ctx context.Context, query string, max int) ([]string, error) {
	if max <= 0 {
		return []string{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	if q := strings.TrimSpace(query); q != "" {
		criteria.Text = []string{q}
	}
	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("unable to search messages: %w", err)
	}
	return newestUIDs(uids, max), nil
}

func (s *Session) GetMessage(ctx context.Context, id string) (*emaildomain.MailRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message uid %q: %w", id, err)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))
	section := &imap.BodySectionName{Peek: true}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		if msg == nil {
			msg = m
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("unable to fetch message %s: %w", id, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("message %s not found", id)
	}
	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message %s has no body", id)
	}
	return parseMessage(id, body)
}

func (s *Session) Close() error {
	return s.client.Logout()
}

func newestUIDs(uids []uint32, max int) []string {
	sorted := append([]uint32(nil), uids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	if len(sorted) > max {
		sorted = sorted[:max]
	}
	ids := make([]string, len(sorted))
	for i, uid := range sorted {
		ids[i] = strconv.FormatUint(uint64(uid), 10)
	}
	return ids
}

// parseMessage turns a raw RFC 5322 message into a MailRecord, taking the
// first text/plain part as body.
func parseMessage(id string, r io.Reader) (*emaildomain.MailRecord, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message %s: %w", id, err)
	}
	defer mr.Close()

	h := mr.Header
	subject, _ := h.Subject()
	record := &emaildomain.MailRecord{
		ID:       id,
		ThreadID: strings.Trim(h.Get("Message-Id"), "<>"),
		Subject:  subject,
		From:     formatAddresses(h, "From"),
		To:       formatAddresses(h, "To"),
		Date:     h.Get("Date"),
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("failed to read part of message %s: %w", id, err)
		}
		if p == nil {
			break
		}
		inline, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := inline.ContentType()
		if ct != "" && !strings.EqualFold(ct, "text/plain") {
			continue
		}
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body of message %s: %w", id, err)
		}
		record.Body = string(b)
		break
	}

	record.Snippet = emaildomain.Truncate(strings.Join(strings.Fields(record.Body), " "), 200)
	record.Normalize()
	return record, nil
}

func formatAddresses(h mail.Header, key string) string {
	addrs, err := h.AddressList(key)
	if err != nil || len(addrs) == 0 {
		return h.Get(key)
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return strings.Join(out, ", ")
}
