package repository

import "errors"

var (
	// ErrAttemptAlreadySubmitted означает, что попытка уже завершена.
	// Возникает и при гонке двух одновременных сабмитов: победитель один,
	// второй получает эту ошибку и трактует ее как безобидную.
	ErrAttemptAlreadySubmitted = errors.New("attempt is already submitted")

	// ErrDuplicateActiveAttempt означает, что partial unique index отклонил
	// вторую открытую попытку для той же пары (user, mock_test).
	ErrDuplicateActiveAttempt = errors.New("another attempt is already in progress for this mock test")
)
