// Package projection keeps the search read model in Redis.
//
// Every item lives in a hash item:{id}. Hash field wm holds the UpdatedAt watermark in
// microseconds; writes carrying an older or equal watermark are dropped by the scripts below.
// A removed item leaves a tombstone hash (wm and deleted only) that rejects every later write.
package projection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/andreyxaxa/auction-sync/internal/entity"
	rds "github.com/andreyxaxa/auction-sync/pkg/redis"
	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	_defaultPage = 1
	_defaultSize = 4
	_maxPageSize = 100

	// _retention outlives the bus redelivery horizon. Bid idempotency sets of finished items
	// and tombstones of removed ones expire after it.
	_retention = 7 * 24 * time.Hour

	// Keys
	itemKeyPrefix = "item:"
	bidsKeySuffix = ":bids"
	byEndKey      = "items:by_end"
	byCreatedKey  = "items:by_created"
	watermarkKey  = "search:watermark"

	// Hash fields
	fieldID             = "id"
	fieldSeller         = "seller"
	fieldWinner         = "winner"
	fieldReservePrice   = "reservePrice"
	fieldSoldAmount     = "soldAmount"
	fieldCurrentHighBid = "currentHighBid"
	fieldStatus         = "status"
	fieldAuctionEnd     = "auctionEnd"
	fieldCreatedAt      = "createdAt"
	fieldUpdatedAt      = "updatedAt"
	fieldMake           = "make"
	fieldModel          = "model"
	fieldYear           = "year"
	fieldColor          = "color"
	fieldMileage        = "mileage"
	fieldImageURL       = "imageUrl"
	fieldDeleted        = "deleted"
)

// KEYS: item, by_end, by_created.
// ARGV: wm, id, end score, created score, partial flag, field/value pairs...
// An empty score leaves that index untouched. A partial write is dropped until the full
// item exists. Finished is sticky and the high bid never drops.
var upsertScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'deleted') then
	return 0
end
local cur = redis.call('HGET', KEYS[1], 'wm')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
if ARGV[5] == '1' and not redis.call('HGET', KEYS[1], 'seller') then
	return 0
end
local finished = redis.call('HGET', KEYS[1], 'status') == 'Finished'
for i = 6, #ARGV, 2 do
	local f, v = ARGV[i], ARGV[i + 1]
	if f == 'status' or f == 'winner' or f == 'soldAmount' then
		if not finished then
			redis.call('HSET', KEYS[1], f, v)
		end
	elseif f == 'currentHighBid' then
		local high = redis.call('HGET', KEYS[1], f)
		if not high or high == '' or tonumber(v) > tonumber(high) then
			redis.call('HSET', KEYS[1], f, v)
		end
	else
		redis.call('HSET', KEYS[1], f, v)
	end
end
redis.call('HSET', KEYS[1], 'wm', ARGV[1])
if ARGV[3] ~= '' then
	redis.call('ZADD', KEYS[2], ARGV[3], ARGV[2])
end
if ARGV[4] ~= '' then
	redis.call('ZADD', KEYS[3], ARGV[4], ARGV[2])
end
return 1
`)

// KEYS: item, bids set. ARGV: bid id, amount.
var applyBidScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'deleted') then
	return 0
end
if redis.call('SADD', KEYS[2], ARGV[1]) == 0 then
	return 0
end
local high = redis.call('HGET', KEYS[1], 'currentHighBid')
if high and high ~= '' and tonumber(high) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'currentHighBid', ARGV[2])
return 1
`)

// KEYS: item, bids set. ARGV: winner, sold amount (both may be empty), retention seconds.
// No competitive bid follows a finish, so the bids set only has to outlive redeliveries.
var applyFinishScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'deleted') then
	return 0
end
redis.call('EXPIRE', KEYS[2], ARGV[3])
if redis.call('HGET', KEYS[1], 'status') == 'Finished' then
	return 0
end
redis.call('HSET', KEYS[1], 'status', 'Finished')
if ARGV[1] ~= '' then
	redis.call('HSET', KEYS[1], 'winner', ARGV[1], 'soldAmount', ARGV[2])
end
return 1
`)

// KEYS: item, bids set, by_end, by_created. ARGV: wm, id, retention seconds.
// The tombstone keeps the larger of both watermarks. Returns 0 when already removed.
var removeScript = redis.NewScript(`
local wm = ARGV[1]
local cur = redis.call('HGET', KEYS[1], 'wm')
if cur and tonumber(cur) > tonumber(wm) then
	wm = cur
end
local existed = not redis.call('HGET', KEYS[1], 'deleted')
redis.call('DEL', KEYS[1], KEYS[2])
redis.call('ZREM', KEYS[3], ARGV[2])
redis.call('ZREM', KEYS[4], ARGV[2])
redis.call('HSET', KEYS[1], 'wm', wm, 'deleted', '1')
redis.call('EXPIRE', KEYS[1], ARGV[3])
if existed then
	return 1
end
return 0
`)

// KEYS: watermark. ARGV: candidate in microseconds.
var advanceWatermarkScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

type ItemRepo struct {
	*rds.Redis
}

func NewItemRepo(r *rds.Redis) *ItemRepo {
	return &ItemRepo{r}
}

func (r *ItemRepo) Upsert(ctx context.Context, item *entity.Item) (bool, error) {
	fields := []any{
		fieldID, item.ID.String(),
		fieldSeller, item.Seller,
		fieldReservePrice, item.ReservePrice.String(),
		fieldStatus, string(item.Status),
		fieldAuctionEnd, formatTime(item.AuctionEnd),
		fieldCreatedAt, formatTime(item.CreatedAt),
		fieldUpdatedAt, formatTime(item.UpdatedAt),
		fieldMake, item.Make,
		fieldModel, item.Model,
		fieldYear, item.Year,
		fieldColor, item.Color,
		fieldMileage, item.Mileage,
		fieldImageURL, item.ImageURL,
	}
	if item.Winner != nil {
		fields = append(fields, fieldWinner, *item.Winner)
	}
	if item.SoldAmount != nil {
		fields = append(fields, fieldSoldAmount, item.SoldAmount.String())
	}
	if item.CurrentHighBid != nil {
		fields = append(fields, fieldCurrentHighBid, item.CurrentHighBid.String())
	}

	applied, err := r.upsert(ctx, item.ID, item.UpdatedAt, score(item.AuctionEnd), score(item.CreatedAt), false, fields)
	if err != nil {
		return false, fmt.Errorf("ItemRepo - Upsert: %w", err)
	}

	return applied, nil
}

// UpdateDetails rewrites only the descriptive fields of an already projected item.
func (r *ItemRepo) UpdateDetails(ctx context.Context, id uuid.UUID, d entity.ItemDetails, updatedAt time.Time) (bool, error) {
	fields := []any{
		fieldID, id.String(),
		fieldUpdatedAt, formatTime(updatedAt),
		fieldMake, d.Make,
		fieldModel, d.Model,
		fieldYear, d.Year,
		fieldColor, d.Color,
		fieldMileage, d.Mileage,
		fieldImageURL, d.ImageURL,
	}

	applied, err := r.upsert(ctx, id, updatedAt, "", "", true, fields)
	if err != nil {
		return false, fmt.Errorf("ItemRepo - UpdateDetails: %w", err)
	}

	return applied, nil
}

func (r *ItemRepo) upsert(ctx context.Context, id uuid.UUID, updatedAt time.Time, endScore, createdScore string, partial bool, fields []any) (bool, error) {
	flag := "0"
	if partial {
		flag = "1"
	}

	args := append([]any{updatedAt.UnixMicro(), id.String(), endScore, createdScore, flag}, fields...)

	res, err := upsertScript.Run(ctx, r.Client, []string{itemKey(id), byEndKey, byCreatedKey}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("upsertScript.Run: %w", err)
	}

	return res == 1, nil
}

func (r *ItemRepo) ApplyBid(ctx context.Context, auctionID, bidID uuid.UUID, amount decimal.Decimal) (bool, error) {
	keys := []string{itemKey(auctionID), itemKey(auctionID) + bidsKeySuffix}

	res, err := applyBidScript.Run(ctx, r.Client, keys, bidID.String(), amount.String()).Int()
	if err != nil {
		return false, fmt.Errorf("ItemRepo - ApplyBid - applyBidScript.Run: %w", err)
	}

	return res == 1, nil
}

func (r *ItemRepo) ApplyFinish(ctx context.Context, f entity.Finish) error {
	var winner, amount string
	if f.Winner != nil && f.Amount != nil {
		winner, amount = *f.Winner, f.Amount.String()
	}

	keys := []string{itemKey(f.AuctionID), itemKey(f.AuctionID) + bidsKeySuffix}

	err := applyFinishScript.Run(ctx, r.Client, keys, winner, amount, int64(_retention.Seconds())).Err()
	if err != nil {
		return fmt.Errorf("ItemRepo - ApplyFinish - applyFinishScript.Run: %w", err)
	}

	return nil
}

// Remove reports false when the item was already removed.
func (r *ItemRepo) Remove(ctx context.Context, id uuid.UUID, updatedAt time.Time) (bool, error) {
	keys := []string{itemKey(id), itemKey(id) + bidsKeySuffix, byEndKey, byCreatedKey}

	res, err := removeScript.Run(ctx, r.Client, keys, updatedAt.UnixMicro(), id.String(), int64(_retention.Seconds())).Int()
	if err != nil {
		return false, fmt.Errorf("ItemRepo - Remove - removeScript.Run: %w", err)
	}

	return res == 1, nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	h, err := r.Client.HGetAll(ctx, itemKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("ItemRepo - GetByID - r.Client.HGetAll: %w", err)
	}

	// Bid or finish updates may arrive before the item itself; removed items keep a tombstone.
	if h[fieldSeller] == "" || h[fieldDeleted] != "" {
		return nil, fmt.Errorf("ItemRepo - GetByID: %w", errs.ErrRecordNotFound)
	}

	item, err := itemFromHash(h)
	if err != nil {
		return nil, fmt.Errorf("ItemRepo - GetByID - itemFromHash: %w", err)
	}

	return item, nil
}

func (r *ItemRepo) Search(ctx context.Context, q entity.SearchQuery) (entity.SearchResult, error) {
	var (
		IDs []string
		err error
	)

	if q.OrderBy == entity.OrderByNew {
		IDs, err = r.Client.ZRevRange(ctx, byCreatedKey, 0, -1).Result()
	} else {
		IDs, err = r.Client.ZRange(ctx, byEndKey, 0, -1).Result()
	}
	if err != nil {
		return entity.SearchResult{}, fmt.Errorf("ItemRepo - Search - r.Client.ZRange: %w", err)
	}

	pipe := r.Client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(IDs))
	for _, id := range IDs {
		cmds = append(cmds, pipe.HGetAll(ctx, itemKeyPrefix+id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return entity.SearchResult{}, fmt.Errorf("ItemRepo - Search - pipe.Exec: %w", err)
	}

	matched := make([]entity.Item, 0, len(cmds))
	for _, cmd := range cmds {
		h := cmd.Val()
		if h[fieldSeller] == "" {
			continue
		}

		item, err := itemFromHash(h)
		if err != nil {
			return entity.SearchResult{}, fmt.Errorf("ItemRepo - Search - itemFromHash: %w", err)
		}

		if matches(item, q) {
			matched = append(matched, *item)
		}
	}

	if q.OrderBy == entity.OrderByMake {
		slices.SortStableFunc(matched, func(a, b entity.Item) int {
			if c := strings.Compare(a.Make, b.Make); c != 0 {
				return c
			}
			return strings.Compare(a.Model, b.Model)
		})
	}

	return paginate(matched, q.PageNumber, q.PageSize), nil
}

func (r *ItemRepo) Watermark(ctx context.Context) (time.Time, error) {
	v, err := r.Client.Get(ctx, watermarkKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("ItemRepo - Watermark - r.Client.Get: %w", err)
	}

	return time.UnixMicro(v).UTC(), nil
}

// AdvanceWatermark never moves the watermark backwards.
func (r *ItemRepo) AdvanceWatermark(ctx context.Context, to time.Time) error {
	err := advanceWatermarkScript.Run(ctx, r.Client, []string{watermarkKey}, to.UnixMicro()).Err()
	if err != nil {
		return fmt.Errorf("ItemRepo - AdvanceWatermark - advanceWatermarkScript.Run: %w", err)
	}

	return nil
}

func matches(item *entity.Item, q entity.SearchQuery) bool {
	if q.SearchTerm != "" {
		term := strings.ToLower(q.SearchTerm)
		if !strings.Contains(strings.ToLower(item.Make), term) &&
			!strings.Contains(strings.ToLower(item.Model), term) &&
			!strings.Contains(strings.ToLower(item.Color), term) {
			return false
		}
	}

	if q.Seller != "" && item.Seller != q.Seller {
		return false
	}

	if q.Winner != "" && (item.Winner == nil || *item.Winner != q.Winner) {
		return false
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	switch q.FilterBy {
	case entity.FilterFinished:
		return item.AuctionEnd.Before(now)
	case entity.FilterEndingSoon:
		return item.AuctionEnd.After(now) && item.AuctionEnd.Before(now.Add(entity.EndingSoonHorizon))
	default:
		return item.AuctionEnd.After(now)
	}
}

func paginate(items []entity.Item, page, size int) entity.SearchResult {
	if page < 1 {
		page = _defaultPage
	}
	if size < 1 {
		size = _defaultSize
	}
	if size > _maxPageSize {
		size = _maxPageSize
	}

	total := len(items)
	res := entity.SearchResult{
		Results:    []entity.Item{},
		PageCount:  int(math.Ceil(float64(total) / float64(size))),
		TotalCount: total,
	}

	from := (page - 1) * size
	if from >= total {
		return res
	}

	res.Results = items[from:min(from+size, total)]

	return res
}

func itemFromHash(h map[string]string) (*entity.Item, error) {
	var (
		item entity.Item
		err  error
	)

	if item.ID, err = uuid.Parse(h[fieldID]); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}

	item.Seller = h[fieldSeller]
	item.Status = entity.AuctionStatus(h[fieldStatus])
	item.Make = h[fieldMake]
	item.Model = h[fieldModel]
	item.Color = h[fieldColor]
	item.ImageURL = h[fieldImageURL]
	item.Year, _ = strconv.Atoi(h[fieldYear])
	item.Mileage, _ = strconv.Atoi(h[fieldMileage])

	if w, ok := h[fieldWinner]; ok && w != "" {
		item.Winner = &w
	}

	if item.ReservePrice, err = decimal.NewFromString(h[fieldReservePrice]); err != nil {
		return nil, fmt.Errorf("parse reservePrice: %w", err)
	}
	if item.SoldAmount, err = optionalDecimal(h[fieldSoldAmount]); err != nil {
		return nil, fmt.Errorf("parse soldAmount: %w", err)
	}
	if item.CurrentHighBid, err = optionalDecimal(h[fieldCurrentHighBid]); err != nil {
		return nil, fmt.Errorf("parse currentHighBid: %w", err)
	}

	for field, dst := range map[string]*time.Time{
		fieldAuctionEnd: &item.AuctionEnd,
		fieldCreatedAt:  &item.CreatedAt,
		fieldUpdatedAt:  &item.UpdatedAt,
	} {
		if *dst, err = parseTime(h[field]); err != nil {
			return nil, fmt.Errorf("parse %s: %w", field, err)
		}
	}

	return &item, nil
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func itemKey(id uuid.UUID) string {
	return itemKeyPrefix + id.String()
}

func score(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
