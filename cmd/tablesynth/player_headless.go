//go:build headless

package main

import "errors"

var errNoAudio = errors.New("audio output is not available in headless builds")

func newPlayer(sampleRate int) (player, error) {
	return nil, errNoAudio
}
