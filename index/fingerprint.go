// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"

	"github.com/poiesic/compliq/core"
)

// Fingerprint computes a content hash over the model identity and the
// full corpus. Any change to the embedding model, the snippet texts, or
// their order yields a different fingerprint, which invalidates the
// cached index.
func Fingerprint(modelIdentity string, snippets []core.DocumentSnippet) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(modelIdentity))
	h.Write([]byte{0})

	var kindBuf [4]byte
	for i := range snippets {
		binary.LittleEndian.PutUint32(kindBuf[:], uint32(snippets[i].Kind))
		h.Write(kindBuf[:])
		h.Write([]byte(snippets[i].ControlID))
		h.Write([]byte{0})
		h.Write([]byte(snippets[i].Text))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
