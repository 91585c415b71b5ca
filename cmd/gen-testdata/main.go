// gen-testdata prints fixed-width key:value lines suitable for `fkv` load.
package main

import (
	"bufio"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
)

const (
	prefix  = "pref_"
	hmacKey = "d259c7f656caf7f1"
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	_, _ = crand.Read(seedBytes[:])
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

// fit pads s with '_' or truncates it to exactly n bytes.
func fit(s string, n int) string {
	for len(s) < n {
		s += "_"
	}
	return s[:n]
}

func main() {
	nPairs := flag.Int("n", 1000000, "number of pairs to generate")
	keyLen := flag.Int("klen", 64, "key width in bytes (at most 64)")
	valueLen := flag.Int("vlen", 21, "value width in bytes")
	flag.Parse()

	if *keyLen <= 0 || *keyLen > 2*sha256.Size || *valueLen < 0 {
		fmt.Fprintf(os.Stderr, "bad widths: key %d, value %d\n", *keyLen, *valueLen)
		os.Exit(1)
	}
	if float64(*nPairs) > math.Pow(16, float64(*keyLen)) {
		fmt.Fprintf(os.Stderr, "%d hex digits can't make %d distinct keys\n", *keyLen, *nPairs)
		os.Exit(1)
	}

	rng := newRand()
	h := hmac.New(sha256.New, []byte(hmacKey))
	w := bufio.NewWriter(os.Stdout)
	defer func() {
		_ = w.Flush()
	}()

	// distinct values hash to distinct keys, but truncating the hash can
	// collide, so keep track of what we've emitted
	seen := make(map[string]struct{}, *nPairs)
	for len(seen) < *nPairs {
		var buf [8]byte
		if _, err := rng.Read(buf[:]); err != nil {
			panic(err)
		}
		value := fit(fmt.Sprintf("%s%x", prefix, buf), *valueLen)
		h.Reset()
		h.Write(buf[:])
		key := hex.EncodeToString(h.Sum(nil))[:*keyLen]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		fmt.Fprintf(w, "%s:%s\n", key, value)
	}
}
