package naming

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/qdl-tool/qdl/internal/catalog"
)

const (
	aliasSuffix        = "_search_mode"
	defaultModeKey     = "default_naming_mode"
	currentModeKey     = "current_naming_mode"
	folderFormatKey    = "folder_format"
	trackFormatKey     = "track_format"
	createTopFolderKey = "create_top_folder"
	topFolderFormatKey = "top_folder_format"
)

// Profile is one named folder/track naming scheme.
type Profile struct {
	Name            string
	FolderFormat    string
	TrackFormat     string
	CreateTopFolder bool
	TopFolderFormat string
}

// Store holds every profile from the naming rule file plus the default
// section's search-mode alias table. It is loaded once at startup and
// read-only afterwards, so it is safe to share across goroutines.
type Store struct {
	profiles map[string]Profile
	order    []string
	aliases  map[string]string
	// sectionAliases keeps alias-style keys found inside profile
	// sections, in file order, for the substring-scan resolution step.
	sectionAliases []aliasEntry
	defaultName    string
	currentName    string
}

type aliasEntry struct {
	key   string
	value string
}

// ErrDefaultProfileMissing is reported when the configured default
// naming mode does not name an existing profile section. Resolution
// fails closed here instead of cycling back through the chain.
var ErrDefaultProfileMissing = errors.New("default naming profile does not exist")

// Load reads a naming rule file. A missing file yields the embedded
// blueprint rules so a fresh install works without running init first.
func Load(path string) (*Store, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Parse(blueprintNaming)
		}
		return nil, fmt.Errorf("read naming rules %s: %w", path, err)
	}
	store, err := Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("parse naming rules %s: %w", path, err)
	}
	return store, nil
}

func Parse(payload []byte) (*Store, error) {
	file, err := ini.Load(payload)
	if err != nil {
		return nil, err
	}

	store := &Store{
		profiles: map[string]Profile{},
		aliases:  map[string]string{},
	}

	defaults := file.Section(ini.DefaultSection)
	for _, key := range defaults.Keys() {
		name := key.Name()
		switch {
		case strings.Contains(strings.ToLower(name), aliasSuffix):
			store.aliases[strings.ToLower(name)] = key.Value()
		case name == defaultModeKey:
			store.defaultName = key.Value()
		case name == currentModeKey:
			store.currentName = key.Value()
		}
	}

	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		profile := Profile{
			Name:         section.Name(),
			FolderFormat: section.Key(folderFormatKey).String(),
			TrackFormat:  section.Key(trackFormatKey).String(),
		}
		profile.CreateTopFolder, _ = section.Key(createTopFolderKey).Bool()
		profile.TopFolderFormat = section.Key(topFolderFormatKey).String()
		store.profiles[section.Name()] = profile
		store.order = append(store.order, section.Name())

		for _, key := range section.Keys() {
			lower := strings.ToLower(key.Name())
			if strings.Contains(lower, aliasSuffix) {
				store.sectionAliases = append(store.sectionAliases, aliasEntry{key: lower, value: key.Value()})
			}
		}
	}

	if store.defaultName == "" && len(store.order) > 0 {
		store.defaultName = store.order[0]
	}
	if store.currentName == "" {
		store.currentName = store.defaultName
	}
	return store, nil
}

func (s *Store) Profile(name string) (Profile, bool) {
	profile, ok := s.profiles[name]
	return profile, ok
}

// Default returns the configured default profile, failing closed when
// the configured name does not resolve.
func (s *Store) Default() (Profile, error) {
	profile, ok := s.profiles[s.defaultName]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrDefaultProfileMissing, s.defaultName)
	}
	return profile, nil
}

func (s *Store) CurrentName() string {
	return s.currentName
}

// entityProfileFallback maps each entity type to a canonical profile
// name for the static fallback step of the resolution chain.
var entityProfileFallback = map[catalog.EntityType]string{
	catalog.EntityArtist:   "artist_discography",
	catalog.EntityLabel:    "label_discography",
	catalog.EntityAlbum:    "artist_album",
	catalog.EntityTrack:    "single_track",
	catalog.EntityPlaylist: "playlists",
}

// ResolveProfileName maps a search/entity mode to a profile name. Each
// step is tried only when the previous one produced nothing:
//
//  1. the mode already names a profile;
//  2. a "<mode>_search_mode" alias in the default table;
//  3. any alias-style key in a profile section containing the mode as a
//     case-insensitive substring;
//  4. the static per-entity-type fallback table;
//  5. the mode itself, unresolved (the caller falls back to Default).
func (s *Store) ResolveProfileName(mode string) string {
	if _, ok := s.profiles[mode]; ok {
		return mode
	}

	if target, ok := s.aliases[strings.ToLower(mode)+aliasSuffix]; ok {
		if target != "" {
			return target
		}
	}

	lowerMode := strings.ToLower(mode)
	for _, entry := range s.sectionAliases {
		if strings.Contains(entry.key, lowerMode) && entry.value != "" {
			return entry.value
		}
	}

	if name, ok := entityProfileFallback[catalog.EntityType(lowerMode)]; ok {
		if _, exists := s.profiles[name]; exists {
			return name
		}
	}

	return mode
}

// ResolveProfile runs the name chain and materializes the profile,
// falling back to the configured default for unresolved names.
func (s *Store) ResolveProfile(mode string) (Profile, error) {
	name := s.ResolveProfileName(mode)
	if profile, ok := s.profiles[name]; ok {
		return profile, nil
	}
	return s.Default()
}
