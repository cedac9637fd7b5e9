package sample

import "fmt"

// User represents a user with a name and age.
type User struct {
	Name string
	Age  int
}

// Greet prints a greeting for the given name.
func Greet(name string) string {
	msg := fmt.Sprintf("Hello, %s!", name)
	return msg
}

// Farewell prints a farewell for the given name.
func Farewell(name string) string {
	msg := fmt.Sprintf("Hello, %s!", name)
	return msg
}

// Describe returns a short description of the user.
func (u *User) Describe() (string, error) {
	if u.Age < 0 {
		return "", fmt.Errorf("negative age")
	}
	return fmt.Sprintf("%s (%d)", u.Name, u.Age), nil
}

// Sum adds up the given values.
func Sum(values ...int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
