package vault

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sunela/vault/pkg/block"
	"github.com/sunela/vault/pkg/flash"
	"github.com/sunela/vault/pkg/secret"
	"github.com/sunela/vault/pkg/seqnum"
	"github.com/sunela/vault/pkg/vaulterr"
)

// scanResult holds the outcome of reading and classifying one data block,
// produced by a scan shard and consumed single-threaded during merge.
type scanResult struct {
	res  *block.Result
	phys block.Physical
	err  error
}

// scanShards reads and classifies every block in [dataStart, dataStart+dataCount)
// concurrently, one goroutine per erase-group-sized shard. Reads carry no
// shared mutable state -- each call to codec.Read allocates its own buffer
// -- so this is safe purely as a read fan-out; every shared-state update
// (stats, free-space tracking, entry absorption) happens afterward, single
// threaded, in block order.
func scanShards(p flash.Provider, codec *block.Codec, key *[block.KeySize]byte, dataStart, dataCount uint32) []scanResult {
	results := make([]scanResult, dataCount)

	egs := p.EraseGroupSize()
	if egs == 0 {
		egs = 1
	}

	g, _ := errgroup.WithContext(context.Background())
	for shardStart := uint32(0); shardStart < dataCount; shardStart += egs {
		shardEnd := shardStart + egs
		if shardEnd > dataCount {
			shardEnd = dataCount
		}
		shardStart := shardStart
		shardEnd := shardEnd
		g.Go(func() error {
			for i := shardStart; i < shardEnd; i++ {
				res, phys, err := codec.Read(p, dataStart+i, key)
				results[i] = scanResult{res: res, phys: phys, err: err}
			}
			return nil
		})
	}
	_ = g.Wait() // no shard goroutine returns a non-nil error; per-block failures are carried in scanResult.err

	return results
}

// Open scans the data region of p -- dataCount blocks starting at
// dataStart -- classifying every block, reconstructing the latest
// version of every entry and the settings record, and indexing free
// space. secrets must already be unlocked.
func Open(p flash.Provider, secrets *secret.Manager, dataStart, dataCount uint32, opts ...Option) (*Vault, error) {
	codec, err := block.NewCodec(p.BlockSize())
	if err != nil {
		return nil, err
	}
	key, err := secrets.MasterKey()
	if err != nil {
		return nil, err
	}

	v := &Vault{
		flash:     p,
		codec:     codec,
		secrets:   secrets,
		dataStart: dataStart,
		dataCount: dataCount,
		byName:    make(map[string]*Entry),
	}

	for _, opt := range opts {
		opt(v)
	}

	scanned := scanShards(p, codec, key, dataStart, dataCount)

	for i := uint32(0); i < dataCount; i++ {
		n := dataStart + i
		v.stats.Total++

		r := scanned[i]
		if r.err != nil {
			if errors.Is(r.err, vaulterr.ErrCrypto) {
				v.stats.Invalid++
			} else {
				v.stats.Error++
			}
			if v.onProgress != nil {
				v.onProgress(i+1, dataCount)
			}
			continue
		}

		switch r.phys {
		case block.PhysErased:
			v.stats.Erased++
			v.erased.Add(n, 1)
		case block.PhysDeleted:
			v.stats.Deleted++
			v.deleted.Add(n, 1)
		case block.PhysData:
			v.absorb(n, r.res)
		}

		if v.onProgress != nil {
			v.onProgress(i+1, dataCount)
		}
	}

	v.entries = topoSort(v.entries)
	return v, nil
}

// absorb incorporates one successfully decrypted data or settings block
// into the in-memory model, resolving same-name duplicates by modular
// sequence comparison. The losing block is added to the empty-obsolete
// pool rather than being reclaimed immediately.
func (v *Vault) absorb(n uint32, res *block.Result) {
	switch res.Kind {
	case block.ContentData:
		v.stats.Data++
		fields, err := decodeFields(res.Payload)
		if err != nil {
			v.stats.Invalid++
			return
		}
		idField, ok := firstField(fields, FieldID)
		if !ok || len(idField.Data) == 0 {
			v.stats.Invalid++
			return
		}
		name := string(idField.Data)

		if existing, dup := v.byName[name]; dup {
			if seqnum.Newer(res.Sequence, existing.Sequence) {
				v.empty.Add(existing.Block, 1)
				e := &Entry{Name: name, Sequence: res.Sequence, Block: n, Fields: fields}
				v.byName[name] = e
				for i, o := range v.entries {
					if o == existing {
						v.entries[i] = e
						break
					}
				}
			} else {
				v.empty.Add(n, 1)
			}
			return
		}
		e := &Entry{Name: name, Sequence: res.Sequence, Block: n, Fields: fields}
		v.byName[name] = e
		v.entries = append(v.entries, e)

	case block.ContentSettings:
		v.stats.Special++
		s := decodeSettings(res.Payload)
		if v.haveSettings {
			if seqnum.Newer(res.Sequence, v.settingsSeq) {
				v.empty.Add(v.settingsBlock, 1)
				v.settingsBlock = n
				v.settingsSeq = res.Sequence
				v.settings = s
			} else {
				v.empty.Add(n, 1)
			}
			return
		}
		v.haveSettings = true
		v.settingsBlock = n
		v.settingsSeq = res.Sequence
		v.settings = s

	case block.ContentEmpty:
		v.stats.Empty++
		v.empty.Add(n, 1)

	default:
		v.stats.Invalid++
	}
}

func firstField(fields []Field, t FieldType) (Field, bool) {
	for _, f := range fields {
		if f.Type == t {
			return f, true
		}
	}
	return Field{}, false
}

// topoSort orders entries so that each entry comes directly after the
// entry its prev field names, falling back to case-sensitive name order
// whenever a prev target is absent, shared by more than one entry (each
// such entry is then followed by its own followers before the next), or
// part of a cycle.
func topoSort(entries []*Entry) []*Entry {
	byName := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	children := make(map[string][]*Entry)
	indegree := make(map[*Entry]int, len(entries))
	for _, e := range entries {
		if p, ok := e.prevName(); ok {
			if target, known := byName[p]; known && target != e {
				children[p] = append(children[p], e)
				indegree[e]++
				continue
			}
		}
		indegree[e] = 0
	}

	ready := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if indegree[e] == 0 {
			ready = append(ready, e)
		}
	}
	sortByName(ready)

	var out []*Entry
	for len(ready) > 0 {
		e := ready[0]
		ready = ready[1:]
		out = append(out, e)

		next := children[e.Name]
		sortByName(next)
		var unblocked []*Entry
		for _, c := range next {
			indegree[c]--
			if indegree[c] == 0 {
				unblocked = append(unblocked, c)
			}
		}
		ready = append(unblocked, ready...)
	}

	if len(out) < len(entries) {
		seen := make(map[*Entry]bool, len(out))
		for _, e := range out {
			seen[e] = true
		}
		var remainder []*Entry
		for _, e := range entries {
			if !seen[e] {
				remainder = append(remainder, e)
			}
		}
		sortByName(remainder)
		out = append(out, remainder...)
	}
	return out
}

func sortByName(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}
