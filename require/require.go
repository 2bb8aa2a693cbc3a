package require

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

// this is a subset of github.com/stretchr/testify/require
// with only the functions I use. Failures on Equal show a diff of values.

// TestingT is an interface wrapper around *testing.T
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Helper()
}

var spewConfig = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func messageFromMsgAndArgs(msgAndArgs ...interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%+v", msgAndArgs[0])
	}
	return fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...)
}

func fail(t TestingT, failure string, msgAndArgs ...interface{}) {
	t.Helper()
	if msg := messageFromMsgAndArgs(msgAndArgs...); msg != "" {
		failure += "\nmessage: " + msg
	}
	t.Errorf("%s", failure)
	t.FailNow()
}

// ObjectsAreEqual compares []byte with bytes.Equal and everything else
// with reflect.DeepEqual
func ObjectsAreEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	exp, ok := expected.([]byte)
	if !ok {
		return reflect.DeepEqual(expected, actual)
	}
	act, ok := actual.([]byte)
	if !ok {
		return false
	}
	return bytes.Equal(exp, act)
}

// diff returns a unified diff of spew dumps of expected and actual.
// Only for values of the same kind that are more than a scalar.
func diff(expected interface{}, actual interface{}) string {
	if expected == nil || actual == nil {
		return ""
	}
	et, at := reflect.TypeOf(expected), reflect.TypeOf(actual)
	if et != at {
		return ""
	}
	var e, a string
	switch et.Kind() {
	case reflect.String:
		e, a = reflect.ValueOf(expected).String(), reflect.ValueOf(actual).String()
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Ptr:
		e, a = spewConfig.Sdump(expected), spewConfig.Sdump(actual)
	default:
		return ""
	}
	s, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(e),
		B:        difflib.SplitLines(a),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return s
}

// Equal asserts that two objects are equal.
//
//	require.Equal(t, 123, 123)
func Equal(t TestingT, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if ObjectsAreEqual(expected, actual) {
		return
	}
	failure := fmt.Sprintf("not equal:\nexpected: %#v\nactual  : %#v", expected, actual)
	if d := diff(expected, actual); d != "" {
		failure += "\n\ndiff:\n" + d
	}
	fail(t, failure, msgAndArgs...)
}

// NotEqual asserts that the specified values are NOT equal.
func NotEqual(t TestingT, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !ObjectsAreEqual(expected, actual) {
		return
	}
	fail(t, fmt.Sprintf("should not be: %#v", actual), msgAndArgs...)
}

func isNil(object interface{}) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

func Nil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if isNil(object) {
		return
	}
	fail(t, "expected nil, got: "+spewConfig.Sdump(object), msgAndArgs...)
}

func NotNil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !isNil(object) {
		return
	}
	fail(t, "expected value not to be nil", msgAndArgs...)
}

// NoError asserts that a function returned no error (i.e. `nil`).
func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err == nil {
		return
	}
	fail(t, fmt.Sprintf("received unexpected error: %s", err), msgAndArgs...)
}

// ErrorIs asserts that errors.Is(err, target) is true
func ErrorIs(t TestingT, err error, target error, msgAndArgs ...interface{}) {
	t.Helper()
	if errors.Is(err, target) {
		return
	}
	fail(t, fmt.Sprintf("error is not '%v'\nerror: %v", target, err), msgAndArgs...)
}

// Len asserts that the specified object has specific length.
//
//	require.Len(t, mySlice, 3)
func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) {
	t.Helper()
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		if v.Len() == length {
			return
		}
		fail(t, fmt.Sprintf("should have %d item(s), but has %d: %s", length, v.Len(), spewConfig.Sdump(object)), msgAndArgs...)
	default:
		fail(t, fmt.Sprintf("could not call len() on %T", object), msgAndArgs...)
	}
}

// Contains asserts that s contains substr
func Contains(t TestingT, s string, substr string, msgAndArgs ...interface{}) {
	t.Helper()
	if strings.Contains(s, substr) {
		return
	}
	fail(t, fmt.Sprintf("%q does not contain %q", s, substr), msgAndArgs...)
}

func True(t TestingT, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	if value {
		return
	}
	fail(t, "should be true", msgAndArgs...)
}

func False(t TestingT, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	if !value {
		return
	}
	fail(t, "should be false", msgAndArgs...)
}
