// Package challenge gates alarm dismissal behind a short sequence of
// arithmetic questions.
//
// A Session holds three or four generated questions. Answers are submitted as
// raw text; only the answer to the final question decides whether the session
// is solved or failed, earlier answers just move the session forward.
package challenge
