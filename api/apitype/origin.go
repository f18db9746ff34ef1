package apitype

import "fmt"

type OriginKind int

const (
	OriginNone OriginKind = iota
	OriginMessage
	OriginUserPhoto
	OriginPeerPhoto
	OriginStickerSet
	OriginWallpaper
)

// FileOrigin tells the transport why a file is being requested so that an
// expired file reference can be refreshed from the right place.
type FileOrigin struct {
	Kind   OriginKind
	PeerId int64
	ItemId int64
}

var NoOrigin = FileOrigin{}

func MessageOrigin(peerId int64, messageId int64) FileOrigin {
	return FileOrigin{Kind: OriginMessage, PeerId: peerId, ItemId: messageId}
}

func (s FileOrigin) IsEmpty() bool {
	return s.Kind == OriginNone
}

func (s FileOrigin) String() string {
	switch s.Kind {
	case OriginMessage:
		return fmt.Sprintf("Message{%d:%d}", s.PeerId, s.ItemId)
	case OriginUserPhoto:
		return fmt.Sprintf("UserPhoto{%d:%d}", s.PeerId, s.ItemId)
	case OriginPeerPhoto:
		return fmt.Sprintf("PeerPhoto{%d}", s.PeerId)
	case OriginStickerSet:
		return fmt.Sprintf("StickerSet{%d}", s.ItemId)
	case OriginWallpaper:
		return fmt.Sprintf("Wallpaper{%d}", s.ItemId)
	}
	return "Origin<none>"
}
