// Package history picks random quotes, icons and songs out of a channel's
// message history.
package history

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const DefaultPageSize = 100

// MusicLinkPattern matches links to the supported music platforms.
var MusicLinkPattern = regexp.MustCompile(`(?i)(https?://)?(www\.)?(youtube\.com|youtu\.be|soundcloud\.com|spotify\.com)/\S+`)

// MessageFetcher is the slice of the Discord REST API the sampler reads
// history through. rest.Rest satisfies it.
type MessageFetcher interface {
	GetMessages(channelID snowflake.ID, around snowflake.ID, before snowflake.ID, after snowflake.ID, limit int, opts ...rest.RequestOpt) ([]discord.Message, error)
}

// Candidate is one selectable item taken from a message.
type Candidate struct {
	Payload      string
	Author       string
	MessageID    snowflake.ID
	AttachmentID snowflake.ID
}

// Extractor turns one message into zero or more candidates.
type Extractor func(msg discord.Message) []Candidate

type Sampler struct {
	Rest     MessageFetcher
	PageSize int
	Limiter  *rate.Limiter

	mu   sync.Mutex
	rand *rand.Rand
}

func NewSampler(fetcher MessageFetcher) *Sampler {
	return &Sampler{
		Rest:     fetcher,
		PageSize: DefaultPageSize,
		Limiter:  rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the random source, for reproducible picks.
func (s *Sampler) WithRand(r *rand.Rand) *Sampler {
	s.mu.Lock()
	s.rand = r
	s.mu.Unlock()
	return s
}

// Scan walks the whole history of channelID, newest first, and collects the
// candidates extract yields for every message not written by a bot.
func (s *Sampler) Scan(ctx context.Context, channelID snowflake.ID, extract Extractor) ([]Candidate, error) {
	pageSize := s.PageSize
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	var (
		candidates []Candidate
		before     snowflake.ID
	)
	for {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return nil, errors.WithStack(err)
			}
		}

		page, err := s.Rest.GetMessages(channelID, 0, before, 0, pageSize, rest.WithCtx(ctx))
		if err != nil {
			return nil, errors.Wrapf(err, "fetching history of %s", channelID)
		}

		for _, msg := range page {
			if msg.Author.Bot {
				continue
			}
			candidates = append(candidates, extract(msg)...)
		}

		if len(page) < pageSize {
			return candidates, nil
		}
		before = page[len(page)-1].ID
	}
}

// Pick scans channelID and returns one candidate chosen uniformly. ok is false
// when the history holds no candidates.
func (s *Sampler) Pick(ctx context.Context, channelID snowflake.ID, extract Extractor, keep func(Candidate) bool) (Candidate, bool, error) {
	candidates, err := s.Scan(ctx, channelID, extract)
	if err != nil {
		return Candidate{}, false, err
	}
	if keep != nil {
		candidates = lo.Filter(candidates, func(c Candidate, _ int) bool { return keep(c) })
	}
	if len(candidates) == 0 {
		return Candidate{}, false, nil
	}

	s.mu.Lock()
	i := s.rand.Intn(len(candidates))
	s.mu.Unlock()
	return candidates[i], true, nil
}

// RandomQuote picks a non-blank line from any message in channelID.
func (s *Sampler) RandomQuote(ctx context.Context, channelID snowflake.ID) (Candidate, bool, error) {
	return s.Pick(ctx, channelID, QuoteLines, nil)
}

// RandomIcon picks an image attachment from channelID. keep, when set, limits
// the pick to the attachments it accepts.
func (s *Sampler) RandomIcon(ctx context.Context, channelID snowflake.ID, keep func(Candidate) bool) (Candidate, bool, error) {
	return s.Pick(ctx, channelID, ImageAttachments, keep)
}

// RandomSong picks a line that links to a supported music platform.
func (s *Sampler) RandomSong(ctx context.Context, channelID snowflake.ID) (Candidate, bool, error) {
	return s.Pick(ctx, channelID, MusicLinks, nil)
}

func authorName(msg discord.Message) string {
	if msg.Member != nil && msg.Member.Nick != nil && *msg.Member.Nick != "" {
		return *msg.Member.Nick
	}
	return msg.Author.EffectiveName()
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// SplitLines splits the trimmed content on every line boundary, dropping
// empty lines. Indentation inside the content is kept.
func SplitLines(content string) []string {
	return strings.FieldsFunc(strings.TrimSpace(content), isLineBreak)
}

func lineCandidates(msg discord.Message, trim bool, keep func(string) bool) []Candidate {
	author := authorName(msg)
	return lo.FilterMap(SplitLines(msg.Content), func(line string, _ int) (Candidate, bool) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || (keep != nil && !keep(trimmed)) {
			return Candidate{}, false
		}
		if trim {
			line = trimmed
		}
		return Candidate{Payload: line, Author: author, MessageID: msg.ID}, true
	})
}

// QuoteLines yields every non-blank line of the message as written.
func QuoteLines(msg discord.Message) []Candidate {
	return lineCandidates(msg, false, nil)
}

// MusicLinks yields every trimmed line that contains a music platform link.
func MusicLinks(msg discord.Message) []Candidate {
	return lineCandidates(msg, true, MusicLinkPattern.MatchString)
}

// ImageAttachments yields the URL of every attachment declared as an image.
func ImageAttachments(msg discord.Message) []Candidate {
	author := authorName(msg)
	return lo.FilterMap(msg.Attachments, func(a discord.Attachment, _ int) (Candidate, bool) {
		if a.ContentType == nil || !strings.HasPrefix(*a.ContentType, "image") {
			return Candidate{}, false
		}
		return Candidate{Payload: a.URL, Author: author, MessageID: msg.ID, AttachmentID: a.ID}, true
	})
}
