package catalog

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"innkeeper/internal/models"

	"gopkg.in/yaml.v2"
)

type roomsFile struct {
	Rooms []models.Room `yaml:"rooms"`
}

// Load reads and validates a rooms file.
func Load(path string) ([]models.Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms: %w", err)
	}

	var file roomsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rooms: %w", err)
	}

	if err := Validate(file.Rooms); err != nil {
		return nil, err
	}
	return file.Rooms, nil
}

// Validate rejects rooms without an id or hotel and duplicate ids.
func Validate(rooms []models.Room) error {
	seen := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		if room.ID == "" {
			return fmt.Errorf("room '%s' has empty id", room.Name)
		}
		if room.HotelID == "" {
			return fmt.Errorf("room %s has empty hotel_id", room.ID)
		}
		if seen[room.ID] {
			return fmt.Errorf("duplicate room id found: %s", room.ID)
		}
		seen[room.ID] = true
	}
	return nil
}

// Store is the in-memory room catalog. Replace swaps the whole set atomically,
// readers never block.
type Store struct {
	rooms atomic.Pointer[map[string]models.Room]
}

func NewStore(rooms []models.Room) *Store {
	s := &Store{}
	s.Replace(rooms)
	return s
}

func (s *Store) Replace(rooms []models.Room) {
	m := make(map[string]models.Room, len(rooms))
	for _, r := range rooms {
		m[r.ID] = r
	}
	s.rooms.Store(&m)
}

// Room returns an active room by id.
func (s *Store) Room(id string) (models.Room, bool) {
	m := s.rooms.Load()
	if m == nil {
		return models.Room{}, false
	}
	r, ok := (*m)[id]
	if !ok || !r.IsActive {
		return models.Room{}, false
	}
	return r, true
}

// Rooms lists every room ordered by id.
func (s *Store) Rooms() []models.Room {
	m := s.rooms.Load()
	if m == nil {
		return nil
	}
	out := make([]models.Room, 0, len(*m))
	for _, r := range *m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
