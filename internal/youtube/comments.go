package youtube

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/basket/internal/corpus"
)

type commentSnippet struct {
	VideoID           string    `json:"videoId"`
	ParentID          string    `json:"parentId"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	TextDisplay       string    `json:"textDisplay"`
	TextOriginal      string    `json:"textOriginal"`
	LikeCount         int64     `json:"likeCount"`
	PublishedAt       time.Time `json:"publishedAt"`
}

type commentResource struct {
	ID      string         `json:"id"`
	Snippet commentSnippet `json:"snippet"`
}

func (r commentResource) toComment(isReply bool) corpus.Comment {
	text := r.Snippet.TextDisplay
	if text == "" {
		text = r.Snippet.TextOriginal
	}
	return corpus.Comment{
		ID:          r.ID,
		VideoID:     r.Snippet.VideoID,
		ParentID:    r.Snippet.ParentID,
		Author:      r.Snippet.AuthorDisplayName,
		Text:        text,
		LikeCount:   r.Snippet.LikeCount,
		PublishedAt: r.Snippet.PublishedAt,
		IsReply:     isReply,
	}
}

type threadPage struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			VideoID         string          `json:"videoId"`
			TotalReplyCount int             `json:"totalReplyCount"`
			TopLevelComment commentResource `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

type commentPage struct {
	NextPageToken string            `json:"nextPageToken"`
	Items         []commentResource `json:"items"`
}

// Collect streams every comment of videoID to emit, each top-level comment
// followed by its replies, until the pages run out or MaxTotal comments
// were emitted. It returns the number emitted.
func (c *Client) Collect(ctx context.Context, videoID string, emit func(corpus.Comment) error) (int, error) {
	total := 0
	pageToken := ""
	for page := 1; ; page++ {
		params := url.Values{
			"part":       {"snippet"},
			"videoId":    {videoID},
			"maxResults": {strconv.Itoa(pageSize)},
			"textFormat": {"plainText"},
			"pageToken":  {pageToken},
		}
		var tp threadPage
		if err := c.getJSON(ctx, "commentThreads", params, &tp); err != nil {
			return total, err
		}
		if page == 1 {
			c.log.Info().Str("video", videoID).Int("total_threads", tp.PageInfo.TotalResults).Msg("collecting")
		}

		replies, fetched, err := c.pageReplies(ctx, tp, total)
		if err != nil {
			return total, err
		}

		for i, it := range tp.Items {
			top := it.Snippet.TopLevelComment.toComment(false)
			if top.VideoID == "" {
				top.VideoID = it.Snippet.VideoID
			}
			late := !fetched[i] && (c.cfg.MaxTotal == 0 || c.cfg.MaxTotal-total > 1)
			if late && wantsReplies(it.Snippet.TotalReplyCount, top.ID, c.cfg.IncludeReplies) {
				// the reply counts used for budgeting ran high; fetch this one late
				if replies[i], err = c.Replies(ctx, top.ID); err != nil {
					return total, err
				}
			}
			for _, cm := range append([]corpus.Comment{top}, replies[i]...) {
				if err := emit(cm); err != nil {
					return total, err
				}
				total++
				if c.cfg.MaxTotal > 0 && total >= c.cfg.MaxTotal {
					c.log.Info().Int("max_total", c.cfg.MaxTotal).Msg("limit reached, stopping")
					return total, nil
				}
			}
		}
		c.log.Debug().Int("page", page).Int("collected", total).Msg("thread page done")

		pageToken = tp.NextPageToken
		if pageToken == "" {
			return total, nil
		}
	}
}

func wantsReplies(replyCount int, parentID string, include bool) bool {
	return include && replyCount > 0 && parentID != ""
}

// pageReplies fetches the replies of a thread page concurrently. With a
// MaxTotal cap, threads past the remaining budget (estimated from the reply
// counts) are not fetched; fetched reports which were.
func (c *Client) pageReplies(ctx context.Context, tp threadPage, collected int) ([][]corpus.Comment, []bool, error) {
	replies := make([][]corpus.Comment, len(tp.Items))
	fetched := make([]bool, len(tp.Items))
	if !c.cfg.IncludeReplies {
		return replies, fetched, nil
	}

	budget := -1
	if c.cfg.MaxTotal > 0 {
		budget = c.cfg.MaxTotal - collected
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.ReplyWorkers)
	for i, it := range tp.Items {
		if budget >= 0 {
			budget-- // the top-level comment
			if budget <= 0 {
				break
			}
		}
		parent := it.Snippet.TopLevelComment.ID
		if !wantsReplies(it.Snippet.TotalReplyCount, parent, true) {
			continue
		}
		if budget >= 0 {
			budget = max(budget-it.Snippet.TotalReplyCount, 0)
		}
		fetched[i] = true
		g.Go(func() error {
			rs, err := c.Replies(gctx, parent)
			replies[i] = rs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return replies, fetched, nil
}

// CollectAll is Collect into a slice.
func (c *Client) CollectAll(ctx context.Context, videoID string) ([]corpus.Comment, error) {
	var out []corpus.Comment
	_, err := c.Collect(ctx, videoID, func(cm corpus.Comment) error {
		out = append(out, cm)
		return nil
	})
	return out, err
}

// Replies fetches every reply to the top-level comment parentID.
func (c *Client) Replies(ctx context.Context, parentID string) ([]corpus.Comment, error) {
	var out []corpus.Comment
	pageToken := ""
	for {
		params := url.Values{
			"part":       {"snippet"},
			"parentId":   {parentID},
			"maxResults": {strconv.Itoa(pageSize)},
			"textFormat": {"plainText"},
			"pageToken":  {pageToken},
		}
		var cp commentPage
		if err := c.getJSON(ctx, "comments", params, &cp); err != nil {
			return nil, err
		}
		for _, it := range cp.Items {
			cm := it.toComment(true)
			if cm.ParentID == "" {
				cm.ParentID = parentID
			}
			out = append(out, cm)
		}
		pageToken = cp.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}
