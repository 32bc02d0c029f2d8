package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"penpal/models"
)

// ErrUnknownFont is returned for a font id outside the catalog
var ErrUnknownFont = errors.New("unknown font")

// PreferenceStorage keeps per-user compose preferences
type PreferenceStorage struct {
	db *bbolt.DB
}

// NewPreferenceStorage creates a preference storage on db
func NewPreferenceStorage(db *bbolt.DB) *PreferenceStorage {
	return &PreferenceStorage{db: db}
}

// FavoriteFonts returns the user's favourite font ids, oldest first
func (s *PreferenceStorage) FavoriteFonts(userID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		ids, err = readFavorites(tx, userID)
		return err
	})
	return ids, err
}

// SetFavoriteFonts replaces the user's favourites. Duplicates are dropped;
// an unknown id rejects the whole list.
func (s *PreferenceStorage) SetFavoriteFonts(userID string, ids []string) ([]string, error) {
	clean := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := models.FindFontPreset(id); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFont, id)
		}
		if !seen[id] {
			seen[id] = true
			clean = append(clean, id)
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return writeFavorites(tx, userID, clean)
	})
	if err != nil {
		return nil, err
	}
	return clean, nil
}

// ToggleFavoriteFont adds or removes one favourite and reports whether the
// font is a favourite afterwards
func (s *PreferenceStorage) ToggleFavoriteFont(userID, fontID string) ([]string, bool, error) {
	if _, ok := models.FindFontPreset(fontID); !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownFont, fontID)
	}

	var (
		ids      []string
		favorite bool
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		current, err := readFavorites(tx, userID)
		if err != nil {
			return err
		}
		ids = current[:0:0]
		for _, id := range current {
			if id != fontID {
				ids = append(ids, id)
			}
		}
		if len(ids) == len(current) {
			ids = append(ids, fontID)
			favorite = true
		}
		return writeFavorites(tx, userID, ids)
	})
	if err != nil {
		return nil, false, err
	}
	return ids, favorite, nil
}

func readFavorites(tx *bbolt.Tx, userID string) ([]string, error) {
	raw := tx.Bucket([]byte(FontFavoritesBucket)).Get([]byte(userID))
	ids := []string{}
	if raw == nil {
		return ids, nil
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode favourites of %s: %w", userID, err)
	}
	return ids, nil
}

func writeFavorites(tx *bbolt.Tx, userID string, ids []string) error {
	b := tx.Bucket([]byte(FontFavoritesBucket))
	if len(ids) == 0 {
		return b.Delete([]byte(userID))
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return b.Put([]byte(userID), data)
}
