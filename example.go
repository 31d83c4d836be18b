package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	pgdriver "github.com/aschoerk/go-pg-driver/driver"
	"github.com/aschoerk/go-pg-driver/mock"
)

func main() {
	// Part 1: the core API on a pre-established native handle.
	native := mock.NewConn()
	conn, err := pgdriver.NewConn(native)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := conn.LastInsertId(); errors.Is(err, pgdriver.ErrNoLastInsertID) {
		fmt.Println("No identity value yet, as expected")
	}

	stmt, err := conn.Prepare("INSERT INTO users (name, age) VALUES (:name, :age)")
	if err != nil {
		log.Fatal(err)
	}
	if err := conn.Begin(); err != nil {
		log.Fatal(err)
	}
	if _, err := stmt.Exec(map[string]any{"name": "Alice", "age": 30}); err != nil {
		log.Fatal(err)
	}
	if err := conn.Commit(); err != nil {
		log.Fatal(err)
	}

	id, err := conn.LastInsertId()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Inserted user with ID: %d\n", id)

	quoted, _ := conn.Quote("O'Brien")
	fmt.Printf("Quoted literal: %s on server %s\n", quoted, conn.ServerVersion())
	conn.Close()

	// Part 2: the same adapter through database/sql and sqlx.
	native2 := mock.NewConn()
	native2.Stub("SELECT name, age FROM users WHERE id = $1",
		[]string{"name", "age"}, [][]any{{"Hans", int64(31)}})

	connector := &pgdriver.Connector{
		Dial: func(ctx context.Context) (pgdriver.NativeConn, error) { return native2, nil },
	}
	db := sqlx.NewDb(sql.OpenDB(connector), "pgdriver")
	db.SetMaxOpenConns(1)
	defer db.Close()

	if _, err := db.Exec("INSERT INTO users (name, age) VALUES (?, ?)", "Hans", 31); err != nil {
		log.Fatal(err)
	}

	var user struct {
		Name string `db:"name"`
		Age  int    `db:"age"`
	}
	if err := db.Get(&user, "SELECT name, age FROM users WHERE id = ?", 1); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("User: %s, Age: %d\n", user.Name, user.Age)
}
