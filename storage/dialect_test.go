package storage

import "testing"

func TestRebind(t *testing.T) {
	q := "INSERT INTO cities (city_name) VALUES (?) RETURNING city_id"
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("sqlite rebind changed the query: %q", got)
	}
	want := "SELECT a FROM t WHERE x = $1 AND y = $2"
	if got := postgresDialect.rebind("SELECT a FROM t WHERE x = ? AND y = ?"); got != want {
		t.Errorf("postgres rebind: got %q, want %q", got, want)
	}
}

func TestDialectFor(t *testing.T) {
	if _, err := dialectFor("mysql"); err == nil {
		t.Error("expected an error for an unsupported driver")
	}
	d, err := dialectFor("sqlite")
	if err != nil || d.driverName != "sqlite" {
		t.Errorf("dialectFor(sqlite): got %+v, %v", d, err)
	}
}
