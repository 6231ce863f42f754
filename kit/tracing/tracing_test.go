package tracing

import (
	"context"
	"fmt"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
)

func TestStartSpanFromContext(t *testing.T) {
	// Use the mock tracer simply to avoid using a noop tracer implementation.

	tracer := mocktracer.New()
	oldTracer := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(oldTracer)

	type testCase struct {
		ctx          context.Context
		expectPanic  bool
		expectParent bool
	}
	var testCases []testCase

	testCases = append(testCases,
		testCase{
			ctx:          nil,
			expectPanic:  true,
			expectParent: false,
		},
		testCase{
			ctx:          context.Background(),
			expectPanic:  false,
			expectParent: false,
		})

	parentSpan := tracer.StartSpan("parent operation name")
	testCases = append(testCases, testCase{
		ctx:          opentracing.ContextWithSpan(context.Background(), parentSpan),
		expectPanic:  false,
		expectParent: true,
	})

	for i, tc := range testCases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			var span opentracing.Span
			var ctx context.Context
			var gotPanic bool

			func(inputCtx context.Context) {
				defer func() {
					if recover() != nil {
						gotPanic = true
					}
				}()
				span, ctx = StartSpanFromContext(inputCtx)
			}(tc.ctx)

			if tc.expectPanic != gotPanic {
				t.Errorf("panic: expect %v got %v", tc.expectPanic, gotPanic)
			}
			if tc.expectPanic {
				// No other valid checks if panic.
				return
			}
			if ctx == nil {
				t.Error("never expect non-nil ctx")
			}
			if span == nil {
				t.Error("never expect non-nil Span")
			}
			foundParent := span.(*mocktracer.MockSpan).ParentID != 0
			if tc.expectParent != foundParent {
				t.Errorf("parent: expect %v got %v", tc.expectParent, foundParent)
			}
			if ctx == tc.ctx {
				t.Errorf("always expect fresh context")
			}
		})
	}
}

func TestLogError(t *testing.T) {
	tracer := mocktracer.New()
	span := tracer.StartSpan("operation name")

	wantErr := fmt.Errorf("bucket not found")
	if gotErr := LogError(span, wantErr); gotErr != wantErr {
		t.Errorf("LogError must return the error unchanged, got %v", gotErr)
	}
	span.Finish()

	records := tracer.FinishedSpans()[0].Logs()
	if len(records) != 1 {
		t.Fatalf("expected one span log, got %d", len(records))
	}
	field := records[0].Fields[0]
	if field.Key != "error" || field.ValueString != wantErr.Error() {
		t.Errorf("unexpected span log field %+v", field)
	}
}
