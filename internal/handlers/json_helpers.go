package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// JSONResponse encodes payload as JSON with nil slices rendered as empty
// arrays rather than null, which is what API consumers expect for list
// fields like roles, remarks and scores.
func JSONResponse(w http.ResponseWriter, payload interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if payload == nil {
		return json.NewEncoder(w).Encode(payload)
	}
	return json.NewEncoder(w).Encode(emptySlices(reflect.ValueOf(payload)).Interface())
}

// emptySlices returns v with every reachable nil slice replaced by an
// empty one. time.Time values are copied through untouched, its unexported
// fields cannot be set via reflection.
func emptySlices(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return v
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(emptySlices(v.Elem()))
		return out

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		return emptySlices(v.Elem())

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(emptySlices(v.Index(i)))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), emptySlices(iter.Value()))
		}
		return out

	case reflect.Struct:
		if v.Type() == timeType {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			out.Field(i).Set(emptySlices(v.Field(i)))
		}
		return out

	default:
		return v
	}
}
