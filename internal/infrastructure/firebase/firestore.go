package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rxfirebase/internal/domain/service"
	"rxfirebase/pkg/logger"
)

// FirestoreDatabase maps the database tree onto Cloud Firestore. A path with
// an even number of segments names a document; an odd number names a
// collection, which reads as an object of document ID to data.
type FirestoreDatabase struct {
	client *firestore.Client
}

func NewFirestoreDatabase(client *firestore.Client) *FirestoreDatabase {
	return &FirestoreDatabase{client: client}
}

type firestoreTarget struct {
	doc  *firestore.DocumentRef
	coll *firestore.CollectionRef
}

func (d *FirestoreDatabase) resolve(path string) (firestoreTarget, error) {
	segments := splitPath(path)
	switch {
	case len(segments) == 0:
		return firestoreTarget{}, fmt.Errorf("firestore: the root is not addressable")
	case len(segments)%2 == 0:
		return firestoreTarget{doc: d.client.Doc(strings.Join(segments, "/"))}, nil
	default:
		return firestoreTarget{coll: d.client.Collection(strings.Join(segments, "/"))}, nil
	}
}

func (d *FirestoreDatabase) Set(ctx context.Context, path string, value interface{}) error {
	target, err := d.resolve(path)
	if err != nil {
		return err
	}
	if target.doc == nil {
		return fmt.Errorf("firestore: cannot set collection %s", path)
	}
	_, err = target.doc.Set(ctx, firestoreValue(value))
	return err
}

// Update replaces each named field of the document, leaving the others
// alone, the way a realtime database update replaces each named child. Keys
// may be slash separated paths to nested fields.
func (d *FirestoreDatabase) Update(ctx context.Context, path string, values map[string]interface{}) error {
	target, err := d.resolve(path)
	if err != nil {
		return err
	}
	if target.doc == nil {
		return fmt.Errorf("firestore: cannot update collection %s", path)
	}
	fields, paths := updateFields(values)
	if len(paths) == 0 {
		return nil
	}
	_, err = target.doc.Set(ctx, fields, firestore.Merge(paths...))
	return err
}

func (d *FirestoreDatabase) Delete(ctx context.Context, path string) error {
	target, err := d.resolve(path)
	if err != nil {
		return err
	}
	if target.doc != nil {
		_, err = target.doc.Delete(ctx)
		return err
	}

	docs, err := target.coll.Documents(ctx).GetAll()
	if err != nil {
		return err
	}
	for _, snap := range docs {
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *FirestoreDatabase) Get(ctx context.Context, path string) (json.RawMessage, error) {
	target, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	if target.doc != nil {
		snap, err := target.doc.Get(ctx)
		if status.Code(err) == codes.NotFound {
			return json.RawMessage("null"), nil
		}
		if err != nil {
			return nil, err
		}
		return documentJSON(snap)
	}

	docs, err := target.coll.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return collectionJSON(docs)
}

// Listen uses Firestore's snapshot listeners. A path that cannot be resolved
// cancels the listener straight away.
func (d *FirestoreDatabase) Listen(path string, onValue func(json.RawMessage), onCancel func(error)) service.ListenerHandle {
	ctx, cancel := context.WithCancel(context.Background())
	l := &cancelListener{cancel: cancel}

	target, err := d.resolve(path)
	if err != nil {
		go onCancel(err)
		return l
	}

	go func() {
		fail := func(err error) {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Firestore listener on /%s cancelled: %v", path, err)
			onCancel(err)
		}

		if target.doc != nil {
			it := target.doc.Snapshots(ctx)
			defer it.Stop()
			for {
				snap, err := it.Next()
				if err != nil {
					fail(err)
					return
				}
				raw, err := documentJSON(snap)
				if err != nil {
					fail(err)
					return
				}
				onValue(raw)
			}
		}

		it := target.coll.Snapshots(ctx)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				fail(err)
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				fail(err)
				return
			}
			raw, err := collectionJSON(docs)
			if err != nil {
				fail(err)
				return
			}
			onValue(raw)
		}
	}()
	return l
}

func documentJSON(snap *firestore.DocumentSnapshot) (json.RawMessage, error) {
	if snap == nil || !snap.Exists() {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(snap.Data())
}

func collectionJSON(docs []*firestore.DocumentSnapshot) (json.RawMessage, error) {
	if len(docs) == 0 {
		return json.RawMessage("null"), nil
	}
	out := make(map[string]interface{}, len(docs))
	for _, snap := range docs {
		out[snap.Ref.ID] = snap.Data()
	}
	return json.Marshal(out)
}

func splitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// updateFields nests values into document data and lists the field path of
// every key, sorted.
func updateFields(values map[string]interface{}) (map[string]interface{}, []firestore.FieldPath) {
	converted := make(map[string]interface{}, len(values))
	var paths []firestore.FieldPath
	for key, value := range values {
		segments := splitPath(key)
		if len(segments) == 0 {
			continue
		}
		converted[key] = firestoreValue(value)
		paths = append(paths, firestore.FieldPath(segments))
	}
	sort.Slice(paths, func(i, j int) bool {
		return strings.Join(paths[i], "/") < strings.Join(paths[j], "/")
	})
	return nestFields(converted), paths
}

// firestoreValue converts json.Number, which Firestore would store as a
// string, to int64 or float64 throughout v.
func firestoreValue(v interface{}) interface{} {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			out[key] = firestoreValue(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, value := range v {
			out[i] = firestoreValue(value)
		}
		return out
	}
	return v
}

// nestFields turns {"a/b": 1} into {"a": {"b": 1}}.
func nestFields(values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range values {
		segments := splitPath(key)
		if len(segments) == 0 {
			continue
		}
		node := out
		for _, seg := range segments[:len(segments)-1] {
			child, ok := node[seg].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[seg] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = value
	}
	return out
}
