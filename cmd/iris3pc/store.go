package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/irisprotocol/iris3pc/internal/dbrecord"
	"github.com/irisprotocol/iris3pc/pkg/irisio"
)

// demoStore is the CLI's stand-in for the external persistence collaborator
// spec 6.3 assumes (SQLite, out of scope): a flat yaml file of enrolled
// records, loaded whole and rewritten whole. Real deployments hand each
// party only its own two share columns out of a shared store; this demo
// keeps all three in one file for simplicity and lets the simulated parties
// each read the columns dbrecord.Columns says they own.
type demoStore struct {
	Records []dbrecord.Record `yaml:"records"`
}

func loadStore(path string) (*demoStore, error) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &demoStore{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("iris3pc: reading store %s: %w", path, err)
	}
	var s demoStore
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("iris3pc: parsing store %s: %w", path, err)
	}
	return &s, nil
}

func (s *demoStore) save(path string) error {
	buf, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("iris3pc: encoding store: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("iris3pc: writing store %s: %w", path, err)
	}
	return nil
}

// randomIrisCode fills a synthetic code/mask pair for demo enrollment: the
// mask is set everywhere (no occlusion), the code is drawn uniformly.
func randomIrisCode() irisio.IrisCode {
	var code, mask irisio.Bitmap
	for i := 0; i < irisio.IrisCodeSize; i++ {
		mask.SetBit(i, true)
	}
	buf := make([]byte, irisio.IrisCodeSize/8)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failing is not a recoverable demo-CLI condition
	}
	bm, err := irisio.UnmarshalBitmap(buf)
	if err != nil {
		panic(err) // buf is always exactly the right length
	}
	code = bm
	return irisio.IrisCode{Code: code, Mask: mask}
}
