package polyhttp

import "sync"

// H2Context is the per-connection HTTP/2 state: negotiated settings, the
// live stream table, HPACK codec state for both directions, and the last
// stream id seen from the peer, used to validate monotonically increasing
// stream ids (RFC 7540 §5.1.1) and to fill a GOAWAY's last_stream_id.
//
// Grounded on the teacher's serverConn.go fields (hp *HPACK, strms *Streams,
// client/server Settings), consolidated into one type per spec §4.3.
type H2Context struct {
	mu sync.Mutex

	LocalSettings  *SettingsFrame
	RemoteSettings *SettingsFrame

	decoder *HPACKDecoder
	encoder *HPACKEncoder

	streams          *Streams
	lastPeerStreamID uint32
	lastLocalStreamID uint32

	// pendingHeaderStreamID is the stream whose header block is open
	// (a HEADERS/PUSH_PROMISE was seen without END_HEADERS), or 0 when no
	// header block is in progress. While set, only a CONTINUATION on this
	// same stream is a legal next frame (spec §4.4.5).
	pendingHeaderStreamID uint32

	sendWindow int
	recvWindow int
}

// NewH2Context builds a fresh per-connection context with RFC 7540 §6.5.2
// default settings on both sides until SETTINGS frames are exchanged; the
// local side additionally advertises MAX_CONCURRENT_STREAMS of 100.
func NewH2Context() *H2Context {
	local := acquireSettingsFrame()
	local.Add(SettingHeaderTableSize, defaultDynamicTableSize)
	local.Add(SettingMaxConcurrentStreams, 100)
	local.Add(SettingInitialWindowSize, 1<<16-1)
	local.Add(SettingMaxFrameSize, defaultMaxFrameSize)

	remote := acquireSettingsFrame()
	remote.Add(SettingHeaderTableSize, defaultDynamicTableSize)
	remote.Add(SettingInitialWindowSize, 1<<16-1)
	remote.Add(SettingMaxFrameSize, defaultMaxFrameSize)

	return &H2Context{
		LocalSettings:  local,
		RemoteSettings: remote,
		decoder:        NewHPACKDecoder(),
		encoder:        NewHPACKEncoder(),
		streams:        &Streams{},
		sendWindow:     1<<16 - 1,
		recvWindow:     1<<16 - 1,
	}
}

// Close releases pooled settings frames; the context itself is not pooled
// since it lives for the whole connection.
func (c *H2Context) Close() {
	ReleaseFrame(c.LocalSettings)
	ReleaseFrame(c.RemoteSettings)
}

// Decoder returns the HPACK decoder used for inbound header blocks.
func (c *H2Context) Decoder() *HPACKDecoder { return c.decoder }

// Encoder returns the HPACK encoder used for outbound header blocks.
func (c *H2Context) Encoder() *HPACKEncoder { return c.encoder }

// Streams returns the live stream table.
func (c *H2Context) Streams() *Streams { return c.streams }

// ApplyRemoteSettings folds newly received SETTINGS values into the
// context's negotiated state (dynamic table cap, flow-control window base).
func (c *H2Context) ApplyRemoteSettings(entries []SettingEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		switch e.ID {
		case SettingHeaderTableSize:
			c.encoder.SetMaxDynamicTableSize(int(e.Value))
		case SettingInitialWindowSize:
			c.sendWindow = int(e.Value)
		}
		found := false
		for i := range c.RemoteSettings.entries {
			if c.RemoteSettings.entries[i].ID == e.ID {
				c.RemoteSettings.entries[i].Value = e.Value
				found = true
			}
		}
		if !found {
			c.RemoteSettings.Add(e.ID, e.Value)
		}
	}
}

// NextStreamIDValid reports whether id is a legal next client-initiated
// stream id: odd, and strictly greater than every id seen so far
// (RFC 7540 §5.1.1).
func (c *H2Context) NextStreamIDValid(id uint32) bool {
	return id%2 == 1 && id > c.lastPeerStreamID
}

// ObserveStreamID records id as the highest peer-initiated stream seen.
func (c *H2Context) ObserveStreamID(id uint32) { c.lastPeerStreamID = id }

// LastPeerStreamID is the value to place in a GOAWAY frame.
func (c *H2Context) LastPeerStreamID() uint32 { return c.lastPeerStreamID }

// PendingHeaderStreamID returns the stream currently awaiting a closing
// CONTINUATION, or 0 if no header block is open.
func (c *H2Context) PendingHeaderStreamID() uint32 { return c.pendingHeaderStreamID }

// SetPendingHeaderStreamID marks id's header block open (nonzero) or closed
// (0).
func (c *H2Context) SetPendingHeaderStreamID(id uint32) { c.pendingHeaderStreamID = id }

// NextLocalStreamID allocates the next even-numbered server-initiated
// stream id (reserved for PUSH_PROMISE use; unused while push stays
// disabled per spec Non-goals, kept for protocol completeness).
func (c *H2Context) NextLocalStreamID() uint32 {
	c.lastLocalStreamID += 2
	if c.lastLocalStreamID == 0 {
		c.lastLocalStreamID = 2
	}
	return c.lastLocalStreamID
}
