package channel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cuemby/cadence/pkg/types"
)

// Kind tags a decoded message with the slice of session state it carries
type Kind string

const (
	KindSession         Kind = "session"
	KindPlaylist        Kind = "playlist"
	KindRecommendations Kind = "recommendations"
	KindRoster          Kind = "roster"
	KindUnknown         Kind = "unknown"
)

// RosterAction is what happened to a guest in a legacy roster message
type RosterAction string

const (
	GuestJoined  RosterAction = "joined"
	GuestRemoved RosterAction = "removed"
)

// RosterEvent is a guest change synthesized from the legacy text protocol
type RosterEvent struct {
	Action RosterAction
	Guest  types.Guest
}

// Message is the decoded form of one inbound frame. Exactly one payload
// field is set, matching Kind; an unknown message only carries Raw and Err.
type Message struct {
	Kind            Kind
	Session         *types.Session
	Playlist        *types.Playlist
	Recommendations *types.RecommendationList
	Roster          *RosterEvent
	Raw             string
	Err             error
}

// Decoder turns one frame into a Message. Decoders never fail: anything
// they cannot make sense of comes back as KindUnknown.
type Decoder func(data []byte) Message

// Codec names accepted by DecoderFor
const (
	CodecJSON   = "json"
	CodecLegacy = "legacy"
)

// DecoderFor returns the decoder a channel kind uses under the named codec.
// The legacy codec only changes the session channel.
func DecoderFor(kind Kind, codec string) (Decoder, error) {
	switch codec {
	case "", CodecJSON, CodecLegacy:
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}

	switch kind {
	case KindSession:
		if codec == CodecLegacy {
			return DecodeLegacyRoster, nil
		}
		return DecodeSession, nil
	case KindPlaylist:
		return DecodePlaylist, nil
	case KindRecommendations:
		return DecodeRecommendations, nil
	default:
		return nil, fmt.Errorf("no decoder for %q messages", kind)
	}
}

// DecodeSession decodes a JSON session broadcast
func DecodeSession(data []byte) Message {
	var sess types.Session
	if err := decodeObject(data, &sess); err != nil {
		return unknown(data, err)
	}
	return Message{Kind: KindSession, Session: &sess, Raw: string(data)}
}

// DecodePlaylist decodes a JSON playlist broadcast
func DecodePlaylist(data []byte) Message {
	var pl types.Playlist
	if err := decodeObject(data, &pl); err != nil {
		return unknown(data, err)
	}
	return Message{Kind: KindPlaylist, Playlist: &pl, Raw: string(data)}
}

// DecodeRecommendations decodes a JSON recommendation list broadcast
func DecodeRecommendations(data []byte) Message {
	var list types.RecommendationList
	if err := decodeObject(data, &list); err != nil {
		return unknown(data, err)
	}
	return Message{Kind: KindRecommendations, Recommendations: &list, Raw: string(data)}
}

var (
	guestJoinedPattern  = regexp.MustCompile(`^Guest ([^:\s]+):(.+) has joined the session$`)
	guestRemovedPattern = regexp.MustCompile(`^Guest (\S+) was removed from session by host$`)
)

// DecodeLegacyRoster matches the free-text roster sentences of the legacy
// session protocol. Kept for servers that have not moved to JSON.
func DecodeLegacyRoster(data []byte) Message {
	text := strings.TrimSpace(string(data))

	if m := guestJoinedPattern.FindStringSubmatch(text); m != nil {
		return Message{
			Kind:   KindRoster,
			Roster: &RosterEvent{Action: GuestJoined, Guest: types.Guest{ID: m[1], Username: m[2]}},
			Raw:    text,
		}
	}
	if m := guestRemovedPattern.FindStringSubmatch(text); m != nil {
		return Message{
			Kind:   KindRoster,
			Roster: &RosterEvent{Action: GuestRemoved, Guest: types.Guest{ID: m[1]}},
			Raw:    text,
		}
	}
	return unknown(data, fmt.Errorf("unrecognized roster message"))
}

// decodeObject only accepts a JSON object; null, arrays and scalars are
// rejected so they cannot masquerade as an empty update.
func decodeObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected a JSON object")
	}
	return json.Unmarshal(trimmed, v)
}

func unknown(data []byte, err error) Message {
	return Message{Kind: KindUnknown, Raw: string(data), Err: err}
}
