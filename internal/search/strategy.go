// Package search はランダム化された有界リトライ付きのアクティビティ検索戦略を提供する。
//
// 外部レコメンドサービスは複合条件下では一致がまばらなため、ユーザーの
// 厳格な制約（価格上限）は固定したまま、柔らかい条件（参加人数・種類）を
// 再抽選してリトライすることで一致の確率を上げる。
package search

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/moriyama/asobi/internal/bored"
	"github.com/moriyama/asobi/internal/model"
)

const (
	// defaultMaxRetries は空結果に対する追加リトライの上限。初回と合わせて最大21回問い合わせる。
	// 通信障害はこの予算の対象外で、即座に中断する。
	defaultMaxRetries = 20

	// sentinelParticipants は「3人以上」を意味する参加人数の番兵値。
	// サービスが対応するグループサイズからの一様抽選に置き換えられる。
	sentinelParticipants = 3
)

// groupSizePool は番兵値が選ばれた場合に抽選されるグループサイズの候補。
// レコメンドサービスが3人以上で提案を持つ人数。
var groupSizePool = []int{3, 4, 5, 8}

// Criteria はユーザーが指定した検索条件を表す。
type Criteria struct {
	MaxPrice     float64  // 価格上限。全試行で固定。
	Participants int      // 参加人数。sentinelParticipantsの場合は試行ごとに抽選。
	Types        []string // 候補のアクティビティ種類。試行ごとに1つ抽選される。
}

// RecommendationClient は検索戦略が必要とするクライアントインターフェース。
type RecommendationClient interface {
	Query(ctx context.Context, q bored.Query) (*model.Recommendation, error)
}

// AttemptRecorder は検索試行のメトリクス記録インターフェース。
type AttemptRecorder interface {
	RecordSearchAttempt()
	RecordSearchNoMatch()
	RecordSearchLatency(duration time.Duration)
}

// Strategy はランダム化検索戦略を実行する。
type Strategy struct {
	client     RecommendationClient
	logger     *slog.Logger
	metrics    AttemptRecorder
	maxRetries int

	// randIntn はテストで差し替え可能な乱数源。既定はmath/randのグローバル関数。
	randIntn func(n int) int
}

// NewStrategy はStrategyを生成する。metricsはnil可。
// maxRetriesが0以下の場合はdefaultMaxRetriesを使う。
func NewStrategy(client RecommendationClient, logger *slog.Logger, metrics AttemptRecorder, maxRetries int) *Strategy {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Strategy{
		client:     client,
		logger:     logger,
		metrics:    metrics,
		maxRetries: maxRetries,
		randIntn:   rand.Intn,
	}
}

// Find は条件に合うアクティビティを検索する。
// 各試行は独立した抽選で、同じ組み合わせの重複試行もあり得る（系統的な走査はしない）。
// 空結果はmaxRetries回まで再抽選してリトライし、予算を使い切るとNO_MATCH_FOUNDを返す。
// 通信障害は即座に中断してそのまま伝播する。
func (s *Strategy) Find(ctx context.Context, criteria Criteria) (*model.Recommendation, error) {
	if err := validateCriteria(criteria); err != nil {
		return nil, err
	}

	// サービスは小数点以下2桁までの価格しか受け付けない
	price := roundPrice(criteria.MaxPrice)

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordSearchLatency(time.Since(start))
		}
	}()

	totalAttempts := 1 + s.maxRetries
	for attempt := 1; attempt <= totalAttempts; attempt++ {
		query := bored.Query{
			MinPrice:     0,
			MaxPrice:     price,
			Participants: s.drawParticipants(criteria.Participants),
			Type:         s.drawType(criteria.Types),
		}

		if s.metrics != nil {
			s.metrics.RecordSearchAttempt()
		}

		rec, err := s.client.Query(ctx, query)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, bored.ErrNoMatch) {
			// 通信障害はリトライせず即座に中断する
			return nil, err
		}
	}

	s.logger.Info("search exhausted retry budget",
		slog.Int("attempts", totalAttempts),
		slog.Float64("max_price", price),
	)
	if s.metrics != nil {
		s.metrics.RecordSearchNoMatch()
	}

	return nil, model.NewNoMatchFoundError(totalAttempts)
}

// drawParticipants は参加人数を決定する。
// 番兵値（3 = 「3人以上」）の場合は候補プールから一様に抽選し、
// それ以外は指定値をそのまま使う。
func (s *Strategy) drawParticipants(participants int) int {
	if participants == sentinelParticipants {
		return groupSizePool[s.randIntn(len(groupSizePool))]
	}
	return participants
}

// drawType は候補のアクティビティ種類から1つを一様に抽選する。
// サービスは1クエリにつき1種類しか受け付けない。
func (s *Strategy) drawType(types []string) string {
	return types[s.randIntn(len(types))]
}

// roundPrice は価格をサービスが受け付ける精度（小数点以下2桁）に丸める。
func roundPrice(price float64) float64 {
	return math.Round(price*100) / 100
}

// validateCriteria は検索条件を検証する。
func validateCriteria(criteria Criteria) error {
	if criteria.MaxPrice < 0 {
		return model.NewValidationError("価格上限は0以上を指定してください")
	}
	if criteria.Participants < 1 {
		return model.NewValidationError("参加人数は1以上を指定してください")
	}
	if len(criteria.Types) == 0 {
		return model.NewValidationError("アクティビティの種類を1つ以上選択してください")
	}
	return nil
}
