package engine

// DefaultVoices is the fixed polyphony of an Engine
const DefaultVoices = 16

/*
 * VoicePool owns a fixed set of voices sized for one transform size.
 * Triggering never allocates; when every slot is busy a trigger is dropped.
 */
type VoicePool struct {
  voices []*Voice
  size int
  clock uint64
}

func NewVoicePool(capacity, size int) *VoicePool {
  if capacity < 1 {
    capacity = 1
  }

  voices := make([]*Voice, capacity, capacity)
  for i := range voices {
    voices[i] = newVoice(size)
  }

  return &VoicePool{
    voices: voices,
    size: size,
  }
}

func (vp *VoicePool) Capacity() int {
  return len(vp.voices)
}

// transform size the voices are currently sized for
func (vp *VoicePool) Size() int {
  return vp.size
}

func (vp *VoicePool) Voices() []*Voice {
  return vp.voices
}

// Find returns the active voice started by identity, or nil
func (vp *VoicePool) Find(identity Identity) *Voice {
  for _, voice := range vp.voices {
    if voice.Active() && voice.identity == identity {
      return voice
    }
  }
  return nil
}

/*
 * Trigger starts a voice for identity at target (samples). A voice already
 * active for the same identity is restarted; otherwise a free slot is used.
 * nil means the pool is full.
 */
func (vp *VoicePool) Trigger(identity Identity, velocity, target float64) *Voice {
  voice := vp.Find(identity)

  if voice == nil {
    for _, candidate := range vp.voices {
      if !candidate.Active() {
        voice = candidate
        break
      }
    }
  }

  if voice == nil {
    return nil
  }

  vp.clock++
  voice.start(identity, velocity, target, vp.clock)

  return voice
}

// Release stops future grains for identity; the ring still plays out
func (vp *VoicePool) Release(identity Identity) {
  for _, voice := range vp.voices {
    if voice.Playing() && voice.identity == identity {
      voice.release()
    }
  }
}

func (vp *VoicePool) ReleaseAll() {
  for _, voice := range vp.voices {
    voice.release()
  }
}

// Kill stops every voice at once without a tail
func (vp *VoicePool) Kill() {
  for _, voice := range vp.voices {
    voice.kill()
  }
}

/*
 * Resize sizes every voice's spectral state for a new transform size.
 * Playing voices keep sounding from a fresh ring and start with a new grain;
 * releasing voices are dropped. Allocates.
 */
func (vp *VoicePool) Resize(size int) {
  vp.size = size

  for _, voice := range vp.voices {
    if voice.Playing() {
      voice.reset(size)
      continue
    }

    voice.kill()
    voice.spectral.Reset(size)
  }
}

func (vp *VoicePool) ActiveCount() int {
  count := 0
  for _, voice := range vp.voices {
    if voice.Active() {
      count++
    }
  }
  return count
}

/*
 * Primary is the voice the magnitude spectrum and playhead follow: the
 * manual voice when it is playing, otherwise the most recently triggered
 * playing voice.
 */
func (vp *VoicePool) Primary() *Voice {
  var primary *Voice

  for _, voice := range vp.voices {
    if !voice.Playing() {
      continue
    }

    if voice.identity.Kind == ManualTrigger {
      return voice
    }

    if primary == nil || voice.age > primary.age {
      primary = voice
    }
  }

  return primary
}
