package ering_test

import (
	"fmt"

	"github.com/FerroO2000/ering"
)

func ExampleQueue_Split() {
	q, err := ering.New[int](3)
	if err != nil {
		panic(err)
	}
	defer q.Release()

	prod, cons, err := q.Split()
	if err != nil {
		panic(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		for i := range 5 {
			for !prod.Push(i) {
			}
		}
	}()

	for received := 0; received < 5; {
		if val, ok := cons.Pop(); ok {
			fmt.Println(val)
			received++
		}
	}
	<-done

	fmt.Println("capacity:", q.Cap())

	// Output:
	// 0
	// 1
	// 2
	// 3
	// 4
	// capacity: 4
}
