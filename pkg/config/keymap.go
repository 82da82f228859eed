package config

// KeyMap is the receiver's shared read-only index->key table. Index 0
// holds the command-line default key (possibly empty, meaning "no key");
// indices 1..N hold the keys of the configured diallers in declaration
// order. Built once at startup and handed to every connection/datagram
// handler by reference — no locking is required since it never mutates
// after construction (spec.md §5).
type KeyMap map[int]string

// NewKeyMap builds a KeyMap from the CLI default key and the configured
// diallers, in declaration order.
func NewKeyMap(defaultKey string, diallers []DiallerConfig) KeyMap {
	km := make(KeyMap, len(diallers)+1)
	km[0] = defaultKey
	for i, d := range diallers {
		km[i+1] = d.Key
	}
	return km
}

// Key returns the key at index as bytes, and whether it is non-empty.
func (km KeyMap) Key(index int) ([]byte, bool) {
	key := km[index]
	if key == "" {
		return nil, false
	}
	return []byte(key), true
}

// AccountIndex maps a configured dialler's account name to its KeyMap
// index, built once per receiver run.
type AccountIndex map[string]int

// NewAccountIndex builds an AccountIndex from the configured diallers, in
// the same declaration order NewKeyMap uses (so the indices line up).
func NewAccountIndex(diallers []DiallerConfig) AccountIndex {
	idx := make(AccountIndex, len(diallers))
	for i, d := range diallers {
		idx[d.Name] = i + 1
	}
	return idx
}

// KeyFor resolves the decryption key for an inbound account: the account's
// own configured key if it has one, falling back to the KeyMap's default
// (index 0) otherwise.
func KeyFor(account string, keys KeyMap, accounts AccountIndex) ([]byte, bool) {
	if idx, ok := accounts[account]; ok {
		if key, ok := keys.Key(idx); ok {
			return key, true
		}
	}
	return keys.Key(0)
}
