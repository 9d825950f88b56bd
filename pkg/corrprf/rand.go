package corrprf

import "crypto/rand"

func randRead(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}
