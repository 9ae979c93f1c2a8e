package config

import (
	"reflect"
)

// DeepMerge overlays src on top of dst in place. A src field wins whenever
// it is non-zero; zero src fields leave the dst value alone. Both arguments
// must be pointers to the same struct type.
//
// The thresholds schema is flat floats today, but the merge walks nested
// structs so config growth does not require touching this code.
func DeepMerge(dst, src any) {
	dstVal := reflect.ValueOf(dst)
	srcVal := reflect.ValueOf(src)
	if dstVal.Kind() != reflect.Ptr || srcVal.Kind() != reflect.Ptr {
		return
	}
	mergeValues(dstVal.Elem(), srcVal.Elem())
}

func mergeValues(dst, src reflect.Value) {
	if !dst.CanSet() || !src.IsValid() {
		return
	}
	if dst.Kind() == reflect.Struct {
		for i := 0; i < dst.NumField(); i++ {
			mergeValues(dst.Field(i), src.Field(i))
		}
		return
	}
	if !src.IsZero() {
		dst.Set(src)
	}
}
