package services

import (
	"context"
	"sort"

	"github.com/pepperswap/apiserver/types"
)

// MatchService ranks directory members by how closely their inventory
// satisfies a subject's wishlist.
type MatchService struct {
	directory *DirectoryService
}

func NewMatchService(directory *DirectoryService) *MatchService {
	return &MatchService{directory: directory}
}

// NClosestWishlistMatches returns up to n candidates ordered by the number
// of their inventory items present on the subject's wishlist, descending,
// with ties broken by username ascending so that repeated calls over
// unchanged data are reproducible. The subject is never included and the
// stored documents are never mutated. n = 0 yields an empty slice.
func (s *MatchService) NClosestWishlistMatches(ctx context.Context, userID string, n int) ([]types.WishlistMatch, error) {
	subject, err := s.directory.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.directory.List(ctx)
	if err != nil {
		return nil, err
	}

	wishlist := make(map[string]struct{}, len(subject.Wishlist))
	for _, item := range subject.Wishlist {
		wishlist[item] = struct{}{}
	}

	matches := make([]types.WishlistMatch, 0, len(users))
	for _, candidate := range users {
		if candidate.ID == subject.ID {
			continue
		}
		count := 0
		for _, item := range candidate.Inventory {
			if _, ok := wishlist[item]; ok {
				count++
			}
		}
		matches = append(matches, types.WishlistMatch{User: candidate, WishlistMatches: count})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].WishlistMatches != matches[j].WishlistMatches {
			return matches[i].WishlistMatches > matches[j].WishlistMatches
		}
		return matches[i].Username < matches[j].Username
	})

	if n < 0 {
		n = 0
	}
	if n < len(matches) {
		matches = matches[:n]
	}
	return matches, nil
}
