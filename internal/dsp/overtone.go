package dsp

// maxOvertoneDepth bounds the overtone-ladder walk so each block's peak
// scan has statically provable work: octave doubles at each successful
// step and the walk stops once octave reaches 16, reached in at most 3
// doublings from the starting octave of 2.
const maxOvertoneDepth = 5

// scanOvertones walks the overtone ladder above a candidate fundamental
// bin, confirming successive overtones at octave = 2, 4, 8. It is a
// bounded loop, not recursive, so its worst-case cost is fixed per block.
// It returns the octave the walk stopped at (twice the highest multiplier
// confirmed, or 2 when none was) and the frequency (in Hz) of the last
// confirmed overtone bin, scaled back down to the fundamental.
func scanOvertones(power []float64, freqPerBin, threshold, fundamentalBin float64) (octave int, freq float64) {
	octave = 2
	bin := fundamentalBin

	for depth := 0; depth < maxOvertoneDepth && octave < 16; depth++ {
		target := bin * float64(octave)
		scan := target * 0.1
		if scan < 2 {
			scan = 2
		}

		lo := int(target - scan)
		if lo < 1 {
			lo = 1
		}
		hi := int(target + scan)
		if hi > len(power)-2 {
			hi = len(power) - 2
		}
		if hi < lo {
			break
		}

		peakBin := -1
		for i := lo; i <= hi; i++ {
			if power[i] > threshold && power[i] > power[i-1] && power[i] > power[i+1] {
				peakBin = i
				break
			}
		}
		if peakBin < 0 {
			break
		}

		bin = float64(peakBin) / float64(octave)
		freq = freqPerBin * float64(peakBin) / float64(octave)
		octave *= 2
	}

	return octave, freq
}

// FindFundamental scans bins [2, kBreak) of a power spectrum for
// local-maximum candidates, walks each one's overtone ladder, and returns
// the frequency of the best-qualifying fundamental, or 0 when nothing
// qualifies.
//
// A candidate is accepted only once its overtone ladder reaches octave
// >= 4. Among accepted candidates the loudest wins,
// but a louder higher-indexed candidate only displaces an earlier one
// when it exceeds it by a factor of about 20 (~26dB), so a strong
// second harmonic never steals the fundamental slot from a quieter true
// fundamental.
func FindFundamental(ring *RingFFT, baseThreshold float64) float64 {
	power := ring.Power()
	freqPerBin := ring.sampleRate / float64(ring.halfN) / 2

	kBreak := int(float64(ring.halfN) * 4000 / ring.sampleRate)
	if kBreak > len(power)-1 {
		kBreak = len(power) - 1
	}
	if kBreak < 3 {
		return 0
	}

	threshold := baseThreshold
	var bestFreq, bestPeakPower float64
	var bestOctave int

	for k := 2; k < kBreak; k++ {
		if !(power[k] > threshold && power[k] > power[k-1] && power[k] > power[k+1]) {
			continue
		}

		octave, freq := scanOvertones(power, freqPerBin, threshold, float64(k))
		if octave < 4 {
			continue
		}
		if power[k] > bestPeakPower {
			bestPeakPower = power[k]
			bestFreq = freq
			bestOctave = octave
			// a later, louder candidate only wins if it clears the
			// previous peak by ~26dB, preventing a strong harmonic from
			// being mistaken for the fundamental.
			threshold = bestPeakPower * 20
		}
	}

	if bestOctave < 4 {
		return 0
	}
	return bestFreq
}
