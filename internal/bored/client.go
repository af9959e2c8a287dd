// Package bored は外部アクティビティレコメンドサービスとの連携機能を提供する。
// 条件付きクエリの発行とレスポンスの分類を含む。
package bored

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/moriyama/asobi/internal/model"
	"github.com/moriyama/asobi/internal/security"
)

// ErrNoMatch は「条件に合うアクティビティがなかった」正常な空結果を表す。
// レスポンスボディのerrorフィールドで通知され、トランスポート障害とは区別される。
// 呼び出し元（検索戦略）はこのエラーのみリトライ対象にできる。
var ErrNoMatch = errors.New("no matching activity")

// maxResponseSize はレスポンスボディの読み取り上限。
const maxResponseSize = 1 << 20 // 1MiB

// Query はレコメンドサービスへの1回分の検索条件を表す。
type Query struct {
	MinPrice     float64
	MaxPrice     float64
	Participants int
	Type         string
}

// Client はレコメンドサービスのHTTPクライアント。
// レスポンスを「提案」「空結果」「通信障害」の3種類に分類する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	sanitizer  security.TitleSanitizerService
	endpoint   string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, sanitizer security.TitleSanitizerService, endpoint string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		sanitizer:  sanitizer,
		endpoint:   endpoint,
	}
}

// upstreamResponse はレコメンドサービスのレスポンスボディ。
// 提案1件またはerrorフィールドのどちらかを含む。
type upstreamResponse struct {
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Participants int     `json:"participants"`
	Price        float64 `json:"price"`
	Key          string  `json:"key"`
	Error        string  `json:"error"`
}

// Query は検索条件付きでレコメンドサービスに問い合わせる。
// レスポンスにerrorフィールドが含まれる場合はErrNoMatchを返す。
// ネットワーク障害・非200ステータス・パース不能なボディはUPSTREAM_ERRORとして返す。
func (c *Client) Query(ctx context.Context, q Query) (*model.Recommendation, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, model.NewUpstreamError(fmt.Sprintf("エンドポイントURLが不正です: %v", err))
	}

	params := reqURL.Query()
	params.Set("minprice", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	params.Set("maxprice", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	params.Set("participants", strconv.Itoa(q.Participants))
	params.Set("type", q.Type)
	reqURL.RawQuery = params.Encode()

	return c.get(ctx, reqURL.String())
}

// Random は条件なしでアクティビティを1件取得する。ホームページの提案に使用する。
func (c *Client) Random(ctx context.Context) (*model.Recommendation, error) {
	return c.get(ctx, c.endpoint)
}

// get はGETリクエストを実行し、レスポンスを分類する。
func (c *Client) get(ctx context.Context, requestURL string) (*model.Recommendation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, model.NewUpstreamError(fmt.Sprintf("リクエストの作成に失敗しました: %v", err))
	}
	req.Header.Set("User-Agent", "Asobi/1.0 Activity Tracker")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("recommendation API request failed",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamError("サービスに接続できません")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("recommendation API returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewUpstreamError(fmt.Sprintf("ステータス %d が返されました", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, model.NewUpstreamError("レスポンスの読み取りに失敗しました")
	}

	var parsed upstreamResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("failed to parse recommendation API response",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamError("レスポンスを解析できません")
	}

	// errorフィールドは「条件に一致なし」の正常応答。通信障害とは区別する。
	if parsed.Error != "" {
		return nil, ErrNoMatch
	}

	if parsed.Key == "" {
		return nil, model.NewUpstreamError("レスポンスにアクティビティが含まれていません")
	}

	return &model.Recommendation{
		Title:        c.sanitizer.Sanitize(parsed.Title),
		Type:         parsed.Type,
		Participants: parsed.Participants,
		Price:        parsed.Price,
		ExternalKey:  parsed.Key,
	}, nil
}
