// Package leaderboard maintains the ranking index and answers ranked queries.
// The index only discovers which usernames are ranked; display order is
// derived at query time from each username's live player record.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/emberclash/api/internal/models"
	"github.com/emberclash/api/internal/player"
	"github.com/emberclash/api/internal/store"
)

const (
	scoresKey = "leaderboard:scores"
	winsKey   = "leaderboard:wins"
)

// DisplayLimit caps the visible leaderboard. It bounds the view only;
// TotalPlayers always reports the full resolved count.
const DisplayLimit = 25

// Service answers ranked queries and records battle results.
type Service struct {
	store  store.Store
	ledger *player.Ledger
}

// NewService creates a leaderboard service over the given store and ledger.
func NewService(s store.Store, ledger *player.Ledger) *Service {
	return &Service{store: s, ledger: ledger}
}

// RecordResult increments the win counter for a username and adds scoreDelta
// to its raw score. The index entry is ensured first, so a first win seeds the
// score from the live player record. The hash writes are not atomic with the
// caller's player write.
func (s *Service) RecordResult(ctx context.Context, username string, scoreDelta int64) error {
	if err := s.EnsureEntry(ctx, username); err != nil {
		return err
	}

	scores, err := s.store.HashGetAll(ctx, scoresKey)
	if err != nil {
		return fmt.Errorf("failed to read score index: %w", err)
	}

	score, _ := parseInt64(scores[username])
	score += scoreDelta

	if err := s.store.HashSet(ctx, scoresKey, username, strconv.FormatInt(score, 10)); err != nil {
		return fmt.Errorf("failed to update score for %s: %w", username, err)
	}

	wins, err := s.store.HashGetAll(ctx, winsKey)
	if err != nil {
		return fmt.Errorf("failed to read win counters: %w", err)
	}
	count, _ := parseInt64(wins[username])
	count++

	if err := s.store.HashSet(ctx, winsKey, username, strconv.FormatInt(count, 10)); err != nil {
		return fmt.Errorf("failed to update wins for %s: %w", username, err)
	}
	return nil
}

// EnsureEntry guarantees a username has an index entry, seeding its score
// from the live player record. Existing scores are left alone.
func (s *Service) EnsureEntry(ctx context.Context, username string) error {
	scores, err := s.store.HashGetAll(ctx, scoresKey)
	if err != nil {
		return fmt.Errorf("failed to read score index: %w", err)
	}
	if _, ok := parseInt64(scores[username]); ok {
		return nil
	}
	score := s.seedScore(ctx, username)
	if err := s.store.HashSet(ctx, scoresKey, username, strconv.FormatInt(score, 10)); err != nil {
		return fmt.Errorf("failed to seed score for %s: %w", username, err)
	}
	return nil
}

// IndexedUsernames returns every username present in the score index, sorted
// for deterministic iteration. Used by opponent sourcing.
func (s *Service) IndexedUsernames(ctx context.Context) ([]string, error) {
	scores, err := s.store.HashGetAll(ctx, scoresKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read score index: %w", err)
	}
	usernames := make([]string, 0, len(scores))
	for username := range scores {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

// Query builds the ranked view for a caller. Index entries with no matching
// player record are skipped, not treated as errors.
func (s *Service) Query(ctx context.Context, caller string) (*models.RankedList, error) {
	scores, err := s.store.HashGetAll(ctx, scoresKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read score index: %w", err)
	}
	wins, err := s.store.HashGetAll(ctx, winsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read win counters: %w", err)
	}

	// Hash iteration order is arbitrary; fix it up front so ties resolve
	// the same way on every query.
	usernames := make([]string, 0, len(scores))
	for username := range scores {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	entries := make([]models.RankedEntry, 0, len(usernames))
	for _, username := range usernames {
		p, err := s.ledger.Get(ctx, username)
		if errors.Is(err, player.ErrNotFound) {
			log.Printf("[Leaderboard] Skipping indexed user %s: no player record", username)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", username, err)
		}
		score, _ := parseInt64(scores[username])
		won, _ := parseInt64(wins[username])
		entries = append(entries, models.RankedEntry{
			Username:   username,
			AvatarURL:  p.AvatarURL,
			Level:      p.Stats.Level,
			BattlesWon: int(won),
			RawScore:   score,
			IsSelf:     username == caller,
		})
	}

	// Level outranks wins outranks raw score, always.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Level != entries[j].Level {
			return entries[i].Level > entries[j].Level
		}
		if entries[i].BattlesWon != entries[j].BattlesWon {
			return entries[i].BattlesWon > entries[j].BattlesWon
		}
		return entries[i].RawScore > entries[j].RawScore
	})

	playerRank := -1
	for i := range entries {
		entries[i].Rank = i + 1
		if entries[i].IsSelf {
			playerRank = i + 1
		}
	}

	list := &models.RankedList{
		PlayerRank:   playerRank,
		TotalPlayers: len(entries),
	}

	if len(entries) <= DisplayLimit {
		list.Entries = entries
		return list, nil
	}

	visible := make([]models.RankedEntry, 0, DisplayLimit+1)
	visible = append(visible, entries[:DisplayLimit-1]...)
	if playerRank > DisplayLimit-1 {
		if playerRank > DisplayLimit {
			visible = append(visible, models.RankedEntry{Placeholder: true})
		}
		visible = append(visible, entries[playerRank-1])
	}
	list.Entries = visible
	return list, nil
}

// Entries returns the raw score index. Administrative use.
func (s *Service) Entries(ctx context.Context) (map[string]int64, error) {
	scores, err := s.store.HashGetAll(ctx, scoresKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read score index: %w", err)
	}
	out := make(map[string]int64, len(scores))
	for username, raw := range scores {
		score, _ := parseInt64(raw)
		out[username] = score
	}
	return out, nil
}

// Seed writes an index entry directly. Administrative use (synthetic entries).
func (s *Service) Seed(ctx context.Context, username string, score int64, battlesWon int) error {
	if err := s.store.HashSet(ctx, scoresKey, username, strconv.FormatInt(score, 10)); err != nil {
		return fmt.Errorf("failed to seed score for %s: %w", username, err)
	}
	if err := s.store.HashSet(ctx, winsKey, username, strconv.Itoa(battlesWon)); err != nil {
		return fmt.Errorf("failed to seed wins for %s: %w", username, err)
	}
	return nil
}

// Remove drops usernames from the score index and win counters.
func (s *Service) Remove(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	if err := s.store.HashDelete(ctx, scoresKey, usernames...); err != nil {
		return fmt.Errorf("failed to remove score entries: %w", err)
	}
	if err := s.store.HashDelete(ctx, winsKey, usernames...); err != nil {
		return fmt.Errorf("failed to remove win counters: %w", err)
	}
	return nil
}

// Wipe clears the entire index and all win counters.
func (s *Service) Wipe(ctx context.Context) error {
	if err := s.store.Delete(ctx, scoresKey); err != nil {
		return fmt.Errorf("failed to wipe score index: %w", err)
	}
	if err := s.store.Delete(ctx, winsKey); err != nil {
		return fmt.Errorf("failed to wipe win counters: %w", err)
	}
	return nil
}

// seedScore derives a starting raw score from the live player record, or 0
// when no record exists yet.
func (s *Service) seedScore(ctx context.Context, username string) int64 {
	p, err := s.ledger.Get(ctx, username)
	if err != nil {
		return 0
	}
	return int64(p.Stats.Level*100 + p.Stats.Experience)
}

func parseInt64(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
