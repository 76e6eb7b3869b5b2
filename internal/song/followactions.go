package song

import "strings"

// Follow action values as the host numbers them.
const (
	FollowActionNone = iota
	FollowActionNext
	FollowActionPrev
	FollowActionFirst
	FollowActionLast
	FollowActionAny
	FollowActionOther
)

var followActionValues = map[string]int{
	"none":  FollowActionNone,
	"next":  FollowActionNext,
	"prev":  FollowActionPrev,
	"first": FollowActionFirst,
	"last":  FollowActionLast,
	"any":   FollowActionAny,
	"other": FollowActionOther,
}

// FollowActionValue maps an action name to its host value. Unrecognized
// names fall back to "none", matching host behavior.
func FollowActionValue(name string) int {
	if v, ok := followActionValues[strings.ToLower(name)]; ok {
		return v
	}
	return FollowActionNone
}

// SetClipFollowActionTime sets the follow trigger time in beats.
func (s *Song) SetClipFollowActionTime(trackIndex, clipIndex int, timeBeats float64) (FollowActionTimeResult, error) {
	_, c, err := s.clip(trackIndex, clipIndex)
	if err != nil {
		return FollowActionTimeResult{}, err
	}
	c.FollowActionTime = timeBeats
	return FollowActionTimeResult{
		TrackIndex:       trackIndex,
		ClipIndex:        clipIndex,
		FollowActionTime: c.FollowActionTime,
	}, nil
}

// SetClipFollowAction sets the primary follow action and its
// probability. The secondary action is cleared to "none" with the
// remaining probability, and follow actions are enabled on the clip.
func (s *Song) SetClipFollowAction(trackIndex, clipIndex int, actionType string, probability float64) (FollowActionResult, error) {
	_, c, err := s.clip(trackIndex, clipIndex)
	if err != nil {
		return FollowActionResult{}, err
	}

	probability = clamp(probability, 0.0, 1.0)

	c.FollowActionA = FollowActionValue(actionType)
	c.FollowActionAProbability = probability
	c.FollowActionB = FollowActionNone
	c.FollowActionBProbability = 1.0 - probability
	c.FollowActionEnabled = true

	return FollowActionResult{
		TrackIndex:          trackIndex,
		ClipIndex:           clipIndex,
		ActionType:          actionType,
		Probability:         probability,
		FollowActionEnabled: c.FollowActionEnabled,
	}, nil
}

// SetClipFollowActionLinked links or unlinks the follow trigger time
// from the clip length.
func (s *Song) SetClipFollowActionLinked(trackIndex, clipIndex int, linked bool) (FollowActionLinkedResult, error) {
	_, c, err := s.clip(trackIndex, clipIndex)
	if err != nil {
		return FollowActionLinkedResult{}, err
	}
	c.FollowActionLinked = linked
	return FollowActionLinkedResult{
		TrackIndex: trackIndex,
		ClipIndex:  clipIndex,
		Linked:     c.FollowActionLinked,
	}, nil
}
