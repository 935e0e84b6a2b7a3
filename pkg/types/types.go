package types

import (
	"slices"
	"time"
)

// Song is an immutable track record as delivered by the session API
type Song struct {
	ID        string   `json:"id" yaml:"id"`
	TrackName string   `json:"trackName,omitempty" yaml:"trackName,omitempty"`
	Album     string   `json:"album,omitempty" yaml:"album,omitempty"`
	AlbumID   string   `json:"albumId,omitempty" yaml:"albumId,omitempty"`
	Artists   []string `json:"artists,omitempty" yaml:"artists,omitempty"`
	ArtistIDs []string `json:"artistIds,omitempty" yaml:"artistIds,omitempty"`
	Genre     string   `json:"genre,omitempty" yaml:"genre,omitempty"`

	// Audio features
	Danceability float64 `json:"danceability,omitempty" yaml:"danceability,omitempty"`
	Energy       float64 `json:"energy,omitempty" yaml:"energy,omitempty"`
	Speechiness  float64 `json:"speechiness,omitempty" yaml:"speechiness,omitempty"`
	Valence      float64 `json:"valence,omitempty" yaml:"valence,omitempty"`
	Tempo        float64 `json:"tempo,omitempty" yaml:"tempo,omitempty"`

	DurationMs  int64      `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`
	Popularity  float64    `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty" yaml:"releaseDate,omitempty"`
}

// Duration returns the song length
func (s Song) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// Recommendation is a song candidate that guests vote on.
// Votes holds voter IDs; order is irrelevant and each voter counts once.
type Recommendation struct {
	Song
	Votes []string `json:"votes" yaml:"votes"`
}

// HasVoted reports whether voterID has voted for this recommendation
func (r Recommendation) HasVoted(voterID string) bool {
	for _, v := range r.Votes {
		if v == voterID {
			return true
		}
	}
	return false
}

// VoteCount returns the number of distinct voters
func (r Recommendation) VoteCount() int {
	seen := make(map[string]struct{}, len(r.Votes))
	for _, v := range r.Votes {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Playlist holds the played history, the song on air and the queue
type Playlist struct {
	PlayedSongs []Song `json:"playedSongs" yaml:"playedSongs"`
	CurrentSong *Song  `json:"currentSong" yaml:"currentSong"`
	QueuedSongs []Song `json:"queuedSongs" yaml:"queuedSongs"`
}

// CurrentSongID returns the current song ID or "" when nothing is playing
func (p *Playlist) CurrentSongID() string {
	if p == nil || p.CurrentSong == nil {
		return ""
	}
	return p.CurrentSong.ID
}

// EmptyPlaylist returns a playlist with non-nil slices and no current song
func EmptyPlaylist() *Playlist {
	return &Playlist{
		PlayedSongs: []Song{},
		QueuedSongs: []Song{},
	}
}

// RecommendationList is the full recommendation set plus the start of the
// current voting window. It replaces the session's recommendation slice
// wholesale.
type RecommendationList struct {
	Recommendations []Recommendation `json:"recommendations"`
	VotingStartTime *time.Time       `json:"votingStartTime,omitempty"`
}

// Guest is a participant that joined a host's session
type Guest struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AverageFeatures summarises the audio features of everything played
type AverageFeatures struct {
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Speechiness  float64 `json:"speechiness"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"`
}

// Artifacts is the end-of-session summary returned by the end-session call
type Artifacts struct {
	SongsPlayed                       int             `json:"songsPlayed"`
	SongsAddedManually                int             `json:"songsAddedManually"`
	MostSongsAddedBy                  string          `json:"mostSongsAddedBy"`
	MostVotesBy                       []string        `json:"mostVotesBy"`
	MostSignificantFeatureOverall     string          `json:"mostSignificantFeatureOverall"`
	FirstRecommendationVotePercentage float64         `json:"firstRecommendationVotePercentage"`
	AverageFeatures                   AverageFeatures `json:"averageFeatures"`
	GenreStart                        []string        `json:"genreStart"`
	GenreEnd                          []string        `json:"genreEnd"`
}

// Session is the aggregate rendered by the UI.
// IsRunning is client-known state and never travels on the wire.
type Session struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name"`
	HostID          string           `json:"hostId,omitempty"`
	HostName        string           `json:"hostName,omitempty"`
	InviteLink      string           `json:"inviteLink,omitempty"`
	CreationDate    *time.Time       `json:"creationDate,omitempty"`
	Guests          map[string]Guest `json:"guests,omitempty"`
	Playlist        *Playlist        `json:"playlist,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	VotingStartTime *time.Time       `json:"votingStartTime,omitempty"`
	Artifacts       *Artifacts       `json:"artifacts,omitempty"`
	IsRunning       bool             `json:"-"`
}

// SessionDraft is the payload of a create-session request
type SessionDraft struct {
	Name     string    `json:"name" yaml:"name"`
	Playlist *Playlist `json:"playlist,omitempty" yaml:"playlist,omitempty"`
}

// Clone returns a deep copy of the session so renderers can hold it without
// racing with merges
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Guests != nil {
		out.Guests = make(map[string]Guest, len(s.Guests))
		for id, g := range s.Guests {
			out.Guests[id] = g
		}
	}
	if s.Playlist != nil {
		pl := clonePlaylist(*s.Playlist)
		out.Playlist = &pl
	}
	if s.Recommendations != nil {
		out.Recommendations = cloneRecommendations(s.Recommendations)
	}
	if s.Artifacts != nil {
		a := *s.Artifacts
		a.MostVotesBy = slices.Clone(s.Artifacts.MostVotesBy)
		a.GenreStart = slices.Clone(s.Artifacts.GenreStart)
		a.GenreEnd = slices.Clone(s.Artifacts.GenreEnd)
		out.Artifacts = &a
	}
	return &out
}

func clonePlaylist(p Playlist) Playlist {
	out := Playlist{
		PlayedSongs: cloneSongs(p.PlayedSongs),
		QueuedSongs: cloneSongs(p.QueuedSongs),
	}
	if p.CurrentSong != nil {
		cur := cloneSong(*p.CurrentSong)
		out.CurrentSong = &cur
	}
	return out
}

// cloneSongs keeps nil and empty apart, both matter on the wire
func cloneSongs(songs []Song) []Song {
	if songs == nil {
		return nil
	}
	out := make([]Song, len(songs))
	for i, s := range songs {
		out[i] = cloneSong(s)
	}
	return out
}

func cloneSong(s Song) Song {
	s.Artists = slices.Clone(s.Artists)
	s.ArtistIDs = slices.Clone(s.ArtistIDs)
	if s.ReleaseDate != nil {
		d := *s.ReleaseDate
		s.ReleaseDate = &d
	}
	return s
}

func cloneRecommendations(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		r.Song = cloneSong(r.Song)
		r.Votes = slices.Clone(r.Votes)
		out[i] = r
	}
	return out
}
