package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/store/storetest"
)

func TestStore(t *testing.T) {
	st := New()
	defer st.Close()
	storetest.Run(t, st)
}

func TestClosedStore(t *testing.T) {
	st := New()
	st.Close()

	_, err := st.ListReports(context.Background(), 0)
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)
	assert.ErrorIs(t, st.AddStopwords(context.Background(), []string{"x"}), internalerr.ErrStoreUnavailable)
}
