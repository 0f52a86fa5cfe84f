package forum

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
)

// UnknownPoster is stored when a message carries no readable author name.
const UnknownPoster = "unknown"

// ThreadRef identifies one thread discovered on the listing page.
type ThreadRef struct {
	ThreadID  string
	URL       string // absolute URL of the thread's latest-post view
	Title     string
	CreatedAt time.Time
}

// Accepted datetime attribute layouts. XenForo emits ISO-8601 with either a
// colon-separated or compact zone offset depending on version.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

func parsePageTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// ExtractThreadID pulls the forum-native thread identifier out of a thread
// URL. XenForo encodes it as the final dot-separated segment of the path
// ("/threads/some-title.12345/latest" -> "12345").
func ExtractThreadID(threadURL string) string {
	u, err := url.Parse(threadURL)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/latest")
	path = strings.TrimRight(path, "/")
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return path[idx+1:]
}

// SnapshotID derives the stable record identity for one thread snapshot:
// the md5 of thread id and the latest post's raw timestamp. Re-extracting an
// unchanged thread reproduces the same ID, which is what makes the store's
// upsert idempotent across cycles.
func SnapshotID(threadID, rawPostTime string) string {
	sum := md5.Sum([]byte(threadID + "_" + rawPostTime))
	return hex.EncodeToString(sum[:])
}

// ParseListing extracts thread references from a listing page. Threads whose
// item lacks a latest-post link are skipped rather than failing the page;
// a page containing no thread markup at all fails with ErrParse. Results are
// ordered newest thread first.
//
// Pure function over the raw content: no I/O, no shared state.
func ParseListing(pageHTML []byte, baseURL string) ([]ThreadRef, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	items := doc.Find("div.structItem--thread")
	if items.Length() == 0 {
		return nil, fmt.Errorf("%w: no thread items on listing page", ErrParse)
	}

	var refs []ThreadRef
	items.Each(func(_ int, item *goquery.Selection) {
		href, ok := item.
			Find("div.structItem-cell--latest a[href]").
			FilterFunction(func(_ int, a *goquery.Selection) bool {
				h, _ := a.Attr("href")
				return strings.Contains(h, "/latest")
			}).
			First().Attr("href")
		if !ok {
			return
		}
		abs, err := base.Parse(href)
		if err != nil {
			return
		}

		ref := ThreadRef{
			ThreadID: ExtractThreadID(abs.String()),
			URL:      abs.String(),
			Title:    strings.TrimSpace(item.Find("div.structItem-title a").First().Text()),
		}
		if ref.ThreadID == "" {
			return
		}
		if ts, ok := parsePageTime(item.Find("div.structItem-cell--main time").First().AttrOr("datetime", "")); ok {
			ref.CreatedAt = ts
		}
		refs = append(refs, ref)
	})

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].CreatedAt.After(refs[j].CreatedAt)
	})
	return refs, nil
}

// ParseLatestMessage extracts the last message of a thread page into an
// AnalyzedPost with every non-sentiment field populated. Quoted text inside
// the message is excluded so replies are scored on their own words. A missing
// author degrades to UnknownPoster; a page without a recognizable message
// container or post timestamp fails with ErrParse.
//
// Pure function over the raw content: no I/O, no shared state.
func ParseLatestMessage(pageHTML []byte, ref ThreadRef) (*domain.AnalyzedPost, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	messages := doc.Find("article.message--post")
	if messages.Length() == 0 {
		return nil, fmt.Errorf("%w: no message containers in thread %s", ErrParse, ref.ThreadID)
	}
	last := messages.Last()

	wrapper := last.Find("div.message-userContent div.bbWrapper").First()
	if wrapper.Length() == 0 {
		return nil, fmt.Errorf("%w: no message body in thread %s", ErrParse, ref.ThreadID)
	}
	body := wrapper.Clone()
	body.Find("blockquote").Remove()
	content := strings.Join(strings.Fields(body.Text()), " ")

	poster := strings.TrimSpace(last.Find("h4.message-name span[itemprop='name']").First().Text())
	if poster == "" {
		poster = UnknownPoster
	}

	rawPostTime := last.Find("time.u-dt").First().AttrOr("datetime", "")
	postTime, ok := parsePageTime(rawPostTime)
	if !ok {
		return nil, fmt.Errorf("%w: no post timestamp in thread %s", ErrParse, ref.ThreadID)
	}

	return &domain.AnalyzedPost{
		ID:             SnapshotID(ref.ThreadID, rawPostTime),
		ThreadTitle:    ref.Title,
		ThreadURL:      ref.URL,
		ThreadDate:     ref.CreatedAt,
		LatestPoster:   poster,
		LatestPostTime: postTime,
		MessageContent: content,
	}, nil
}
