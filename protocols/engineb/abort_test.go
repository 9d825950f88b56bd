package engineb_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/engineb"
)

// This suite exercises the malicious-security abort path end to end: a
// cheating party's JMP delivery disagrees with the other sharer's, and
// every honest party must detect it at Verify rather than silently
// accepting a wrong value, mirroring jmp_test.go's testify case but
// run as a scenario in the teacher's ginkgo/gomega integration style.
var _ = Describe("ENGINE-B, a cheating JMP delivery", func() {
	It("is caught at Verify instead of propagating a wrong value", func() {
		mt := network.NewMemTransports()
		var jmps [3]*engineb.JMP
		for i := range mt {
			jmps[i] = engineb.NewJMP(mt[i])
		}

		w := ringelem.W32
		honest := ringelem.FromUint64(w, 42)
		cheat := ringelem.FromUint64(w, 9999)
		s1, s2, receiver := party.Zero, party.One, party.Two

		err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
			v := honest
			if id == s2 {
				v = cheat
			}
			var vp *ringelem.Element
			if id == s1 || id == s2 {
				vp = &v
			}
			_, err := jmps[id].Deliver(s1, s2, receiver, vp, w)
			return err
		})
		Expect(err).NotTo(HaveOccurred())

		err = network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
			return jmps[id].Verify()
		})
		Expect(err).To(HaveOccurred())
	})

	It("verifies cleanly when every sharer agrees", func() {
		mt := network.NewMemTransports()
		var jmps [3]*engineb.JMP
		for i := range mt {
			jmps[i] = engineb.NewJMP(mt[i])
		}

		w := ringelem.W32
		v := ringelem.FromUint64(w, 123)
		s1, s2, receiver := party.Zero, party.One, party.Two

		err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
			var vp *ringelem.Element
			if id == s1 || id == s2 {
				vp = &v
			}
			_, err := jmps[id].Deliver(s1, s2, receiver, vp, w)
			return err
		})
		Expect(err).NotTo(HaveOccurred())

		err = network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
			return jmps[id].Verify()
		})
		Expect(err).NotTo(HaveOccurred())
	})
})
