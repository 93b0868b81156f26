package geo

// minTrackRun is the ground distance the window must span before a track is
// reported. Below it the nose heading is more meaningful than the jitter.
const minTrackRun = 0.5

// TrackBuffer derives the ground track from the oldest and newest of the
// last n ground positions. It is owned by a single drone and not safe for
// concurrent use.
type TrackBuffer struct {
	ring  []Point
	next  int
	count int
}

// NewTrackBuffer keeps n positions, at least 2.
func NewTrackBuffer(n int) *TrackBuffer {
	return &TrackBuffer{ring: make([]Point, max(n, 2))}
}

// Push records p and returns the track, or fallback while the window spans
// less than minTrackRun.
func (b *TrackBuffer) Push(p Point, fallback float64) float64 {
	b.ring[b.next] = p
	b.next = (b.next + 1) % len(b.ring)
	b.count = min(b.count+1, len(b.ring))

	if b.count < 2 {
		return fallback
	}
	oldest := b.ring[(b.next-b.count+len(b.ring))%len(b.ring)]
	if Distance(oldest, p) < minTrackRun {
		return fallback
	}
	return HeadingTo(oldest, p)
}

// Reset forgets every position, e.g. after the drone is moved.
func (b *TrackBuffer) Reset() {
	b.next, b.count = 0, 0
}
